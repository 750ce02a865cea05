package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/jhomen368/overseerr-mcp/internal/media"
)

// StatusError is a fake upstream failure carrying an HTTP status.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

// HTTPStatus returns Code.
func (e *StatusError) HTTPStatus() int {
	return e.Code
}

// Retryable mirrors the real client's classification.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// FakeSeerr is an in-memory media.Client. Search results are keyed by the
// lowercased query; details by media type and id. Created requests are
// attached to the title's MediaInfo so later lookups see them.
type FakeSeerr struct {
	mu sync.Mutex

	results  map[string][]media.SearchCandidate
	details  map[string]*media.MediaDetails
	requests map[int]*media.RequestRef
	nextID   int

	// failures maps an operation key ("search:<query>", "details:tv:1",
	// "create", "approve:3") to errors returned in order, one per call.
	failures map[string][]error

	calls map[string]int
}

var _ media.Client = (*FakeSeerr)(nil)

// NewFakeSeerr creates an empty fake.
func NewFakeSeerr() *FakeSeerr {
	return &FakeSeerr{
		results:  make(map[string][]media.SearchCandidate),
		details:  make(map[string]*media.MediaDetails),
		requests: make(map[int]*media.RequestRef),
		nextID:   1,
		failures: make(map[string][]error),
		calls:    make(map[string]int),
	}
}

func detailsKey(t media.MediaType, id int) string {
	return fmt.Sprintf("%s:%d", t, id)
}

// AddSearch registers the candidates returned for query.
func (f *FakeSeerr) AddSearch(query string, candidates ...media.SearchCandidate) *FakeSeerr {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[strings.ToLower(query)] = candidates
	return f
}

// AddDetails registers a title.
func (f *FakeSeerr) AddDetails(d *media.MediaDetails) *FakeSeerr {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details[detailsKey(d.MediaType, d.ID)] = d
	return f
}

// AddRequest registers an existing request.
func (f *FakeSeerr) AddRequest(r media.RequestRef) *FakeSeerr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == 0 {
		r.ID = f.nextID
	}
	if r.ID >= f.nextID {
		f.nextID = r.ID + 1
	}
	f.requests[r.ID] = &r
	return f
}

// FailNext queues errors for an operation key.
func (f *FakeSeerr) FailNext(op string, errs ...error) *FakeSeerr {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = append(f.failures[op], errs...)
	return f
}

// Calls returns how many times an operation key was invoked.
func (f *FakeSeerr) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Requests returns all stored requests ordered by id.
func (f *FakeSeerr) Requests() []media.RequestRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]media.RequestRef, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// enter records a call and pops a queued failure. Callers hold f.mu.
func (f *FakeSeerr) enter(op string) error {
	f.calls[op]++
	queue := f.failures[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	f.failures[op] = queue[1:]
	return err
}

func notFound(what string) error {
	return &StatusError{Code: http.StatusNotFound, Message: what + " not found"}
}

func (f *FakeSeerr) Search(_ context.Context, query string, page int, _ string) (*media.SearchPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(query)
	if err := f.enter("search:" + q); err != nil {
		return nil, err
	}
	results := append([]media.SearchCandidate(nil), f.results[q]...)
	return &media.SearchPage{Page: page, TotalPages: 1, TotalResults: len(results), Results: results}, nil
}

func (f *FakeSeerr) FetchDetails(_ context.Context, mediaType media.MediaType, id int, _ string) (*media.MediaDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := detailsKey(mediaType, id)
	if err := f.enter("details:" + key); err != nil {
		return nil, err
	}
	d, ok := f.details[key]
	if !ok {
		return nil, notFound(key)
	}
	out := *d
	if d.Info != nil {
		info := *d.Info
		info.Requests = append([]media.RequestRef(nil), d.Info.Requests...)
		out.Info = &info
	}
	for _, r := range f.requests {
		if r.MediaType == mediaType && r.TmdbID == id {
			if out.Info == nil {
				out.Info = &media.MediaInfo{TmdbID: id, Status: media.StatusUnknown}
			}
			out.Info.Requests = append(out.Info.Requests, *r)
		}
	}
	return &out, nil
}

func (f *FakeSeerr) CreateRequest(_ context.Context, body media.RequestBody) (*media.RequestRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("create"); err != nil {
		return nil, err
	}
	ref := &media.RequestRef{
		ID:               f.nextID,
		Status:           media.RequestPendingApproval,
		Is4K:             body.Is4K,
		MediaType:        body.MediaType,
		TmdbID:           body.MediaID,
		RequestedSeasons: append([]int(nil), body.Seasons...),
	}
	f.nextID++
	f.requests[ref.ID] = ref
	out := *ref
	return &out, nil
}

func (f *FakeSeerr) GetRequest(_ context.Context, id int) (*media.RequestRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(fmt.Sprintf("get:%d", id)); err != nil {
		return nil, err
	}
	r, ok := f.requests[id]
	if !ok {
		return nil, notFound(fmt.Sprintf("request %d", id))
	}
	out := *r
	return &out, nil
}

func (f *FakeSeerr) ListRequests(_ context.Context, params media.ListParams) (*media.RequestPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("list"); err != nil {
		return nil, err
	}

	all := make([]media.RequestRef, 0, len(f.requests))
	for _, r := range f.requests {
		if matchesFilter(*r, params.Filter) {
			all = append(all, *r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	take := params.Take
	if take <= 0 {
		take = 20
	}
	start := min(params.Skip, len(all))
	end := min(start+take, len(all))
	pages := (len(all) + take - 1) / take

	return &media.RequestPage{
		PageInfo: media.PageInfo{Page: start/take + 1, Pages: pages, PageSize: take, Results: len(all)},
		Results:  all[start:end],
	}, nil
}

func matchesFilter(r media.RequestRef, filter string) bool {
	switch filter {
	case "", "all":
		return true
	case "pending":
		return r.Status == media.RequestPendingApproval
	case "approved":
		return r.Status == media.RequestApproved
	case "declined":
		return r.Status == media.RequestDeclined
	case "failed":
		return r.Status == media.RequestFailed
	case "completed", "available":
		return r.Status == media.RequestCompleted
	case "processing":
		return r.Status == media.RequestApproved
	default:
		return true
	}
}

func (f *FakeSeerr) setStatus(op string, id int, status media.RequestStatus) (*media.RequestRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(fmt.Sprintf("%s:%d", op, id)); err != nil {
		return nil, err
	}
	r, ok := f.requests[id]
	if !ok {
		return nil, notFound(fmt.Sprintf("request %d", id))
	}
	r.Status = status
	out := *r
	return &out, nil
}

func (f *FakeSeerr) ApproveRequest(_ context.Context, id int) (*media.RequestRef, error) {
	return f.setStatus("approve", id, media.RequestApproved)
}

func (f *FakeSeerr) DeclineRequest(_ context.Context, id int) (*media.RequestRef, error) {
	return f.setStatus("decline", id, media.RequestDeclined)
}

func (f *FakeSeerr) DeleteRequest(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter(fmt.Sprintf("delete:%d", id)); err != nil {
		return err
	}
	if _, ok := f.requests[id]; !ok {
		return notFound(fmt.Sprintf("request %d", id))
	}
	delete(f.requests, id)
	return nil
}
