// Package health tracks the state of the upstream service and the other
// components the server depends on. State is in memory only.
package health

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventUpdate is the websocket message type for status changes.
const EventUpdate = "health:update"

// Status is the health of one component.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Broadcaster sends status changes to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, payload any)
}

// Item is one tracked component.
type Item struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	Message   string     `json:"message,omitempty"`
	Since     *time.Time `json:"since,omitempty"`
	CheckedAt *time.Time `json:"checkedAt,omitempty"`
}

// MarshalJSON omits the message and since fields for healthy items.
func (i Item) MarshalJSON() ([]byte, error) {
	type alias Item
	a := alias(i)
	if i.Status == StatusOK {
		a.Message = ""
		a.Since = nil
	}
	return json.Marshal(a)
}

// Summary is the overall state.
type Summary struct {
	Healthy bool   `json:"healthy"`
	Items   []Item `json:"items"`
}

// Service holds component states.
type Service struct {
	mu          sync.RWMutex
	items       map[string]*Item
	broadcaster Broadcaster
	now         func() time.Time
	logger      zerolog.Logger
}

// NewService creates an empty health service.
func NewService(logger zerolog.Logger) *Service {
	return &Service{
		items:  make(map[string]*Item),
		now:    time.Now,
		logger: logger.With().Str("component", "health").Logger(),
	}
}

// SetBroadcaster sets the change sink.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// Register starts tracking a component as healthy.
func (s *Service) Register(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; ok {
		return
	}
	s.items[id] = &Item{ID: id, Name: name, Status: StatusOK}
}

// SetError marks a component failed.
func (s *Service) SetError(id, message string) {
	s.set(id, StatusError, message)
}

// SetWarning marks a component degraded.
func (s *Service) SetWarning(id, message string) {
	s.set(id, StatusWarning, message)
}

// SetOK marks a component healthy.
func (s *Service) SetOK(id string) {
	s.set(id, StatusOK, "")
}

func (s *Service) set(id string, status Status, message string) {
	s.mu.Lock()
	item, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn().Str("id", id).Msg("Status update for unregistered component")
		return
	}

	now := s.now()
	item.CheckedAt = &now
	if item.Status == status && item.Message == message {
		s.mu.Unlock()
		return
	}

	old := item.Status
	item.Status = status
	item.Message = message
	if status == StatusOK {
		item.Since = nil
	} else if old == StatusOK {
		item.Since = &now
	}
	snapshot := *item
	b := s.broadcaster
	s.mu.Unlock()

	event := s.logger.Info()
	if status != StatusOK {
		event = s.logger.Warn()
	}
	event.Str("id", id).Str("from", string(old)).Str("to", string(status)).Str("message", message).Msg("Health status changed")

	if b != nil {
		b.Broadcast(EventUpdate, snapshot)
	}
}

// Get returns one component.
func (s *Service) Get(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return Item{}, false
	}
	return *item, true
}

// Summary reports every component sorted by id. Warnings keep the service
// healthy; errors do not.
func (s *Service) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{Healthy: true, Items: make([]Item, 0, len(s.items))}
	for _, item := range s.items {
		sum.Items = append(sum.Items, *item)
		if item.Status == StatusError {
			sum.Healthy = false
		}
	}
	sort.Slice(sum.Items, func(i, j int) bool { return sum.Items[i].ID < sum.Items[j].ID })
	return sum
}

// Probe checks a component.
type Probe func(ctx context.Context) error

// Check runs probe and records the outcome under id.
func (s *Service) Check(ctx context.Context, id string, probe Probe) error {
	if err := probe(ctx); err != nil {
		s.SetError(id, err.Error())
		return err
	}
	s.SetOK(id)
	return nil
}
