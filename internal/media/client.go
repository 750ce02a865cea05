package media

import "context"

// Client is the downstream media-request API. Implementations must return
// errors that expose the HTTP status so callers can tell retryable (5xx,
// timeout) failures from terminal (4xx) ones.
type Client interface {
	Search(ctx context.Context, query string, page int, language string) (*SearchPage, error)
	FetchDetails(ctx context.Context, mediaType MediaType, id int, language string) (*MediaDetails, error)
	CreateRequest(ctx context.Context, body RequestBody) (*RequestRef, error)
	GetRequest(ctx context.Context, id int) (*RequestRef, error)
	ListRequests(ctx context.Context, params ListParams) (*RequestPage, error)
	ApproveRequest(ctx context.Context, id int) (*RequestRef, error)
	DeclineRequest(ctx context.Context, id int) (*RequestRef, error)
	DeleteRequest(ctx context.Context, id int) error
}
