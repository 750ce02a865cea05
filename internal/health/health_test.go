package health

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhomen368/overseerr-mcp/internal/testutil"
)

type recorder struct {
	payloads []any
}

func (r *recorder) Broadcast(_ string, payload any) {
	r.payloads = append(r.payloads, payload)
}

func TestService_Transitions(t *testing.T) {
	svc := NewService(testutil.NopLogger())
	rec := &recorder{}
	svc.SetBroadcaster(rec)
	svc.Register("overseerr", "Overseerr")

	svc.SetError("overseerr", "connection refused")
	svc.SetError("overseerr", "connection refused")

	item, ok := svc.Get("overseerr")
	require.True(t, ok)
	assert.Equal(t, StatusError, item.Status)
	assert.NotNil(t, item.Since)
	assert.False(t, svc.Summary().Healthy)
	assert.Len(t, rec.payloads, 1, "repeated state is not rebroadcast")

	svc.SetOK("overseerr")
	assert.True(t, svc.Summary().Healthy)
	assert.Len(t, rec.payloads, 2)
}

func TestService_WarningStaysHealthy(t *testing.T) {
	svc := NewService(testutil.NopLogger())
	svc.Register("cache", "Cache")
	svc.SetWarning("cache", "hit rate low")
	assert.True(t, svc.Summary().Healthy)
}

func TestService_Check(t *testing.T) {
	svc := NewService(testutil.NopLogger())
	svc.Register("overseerr", "Overseerr")

	err := svc.Check(context.Background(), "overseerr", func(context.Context) error { return errors.New("down") })
	require.Error(t, err)
	item, _ := svc.Get("overseerr")
	assert.Equal(t, "down", item.Message)

	require.NoError(t, svc.Check(context.Background(), "overseerr", func(context.Context) error { return nil }))
	item, _ = svc.Get("overseerr")
	assert.Equal(t, StatusOK, item.Status)
}

func TestItem_MarshalOmitsMessageWhenOK(t *testing.T) {
	data, err := json.Marshal(Item{ID: "x", Status: StatusOK, Message: "stale"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "stale")
}
