package requests

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jhomen368/overseerr-mcp/internal/batch"
	"github.com/jhomen368/overseerr-mcp/internal/media"
)

// Action is a request management operation.
type Action string

const (
	ActionGet     Action = "get"
	ActionList    Action = "list"
	ActionApprove Action = "approve"
	ActionDecline Action = "decline"
	ActionDelete  Action = "delete"
)

const (
	defaultTake = 20
	maxTake     = 100
)

var validFilters = map[string]struct{}{
	"all": {}, "pending": {}, "approved": {}, "available": {},
	"processing": {}, "unavailable": {}, "failed": {},
}

// ManageArgs selects a management action. Mutations take RequestID or
// RequestIDs.
type ManageArgs struct {
	Action     Action `json:"action" validate:"required,oneof=get list approve decline delete"`
	RequestID  int    `json:"requestId,omitempty"`
	RequestIDs []int  `json:"requestIds,omitempty" validate:"omitempty,max=100,dive,gt=0"`
	Filter     string `json:"filter,omitempty"`
	Take       int    `json:"take,omitempty" validate:"omitempty,min=1,max=100"`
	Skip       int    `json:"skip,omitempty" validate:"omitempty,min=0"`
	Sort       string `json:"sort,omitempty" validate:"omitempty,oneof=added modified"`
	Summary    bool   `json:"summary,omitempty"`
}

// RequestView is a request with humanized status labels.
type RequestView struct {
	media.RequestRef
	StatusLabel      string `json:"statusLabel"`
	MediaStatusLabel string `json:"mediaStatusLabel,omitempty"`
}

func viewOf(r media.RequestRef) RequestView {
	v := RequestView{RequestRef: r, StatusLabel: r.Status.String()}
	if r.MediaStatus != 0 {
		v.MediaStatusLabel = r.MediaStatus.String()
	}
	return v
}

// ListSummary counts a page of requests by status.
type ListSummary struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"byStatus"`
}

// ManageResult is the outcome of ManageRequests. Which fields are set
// depends on the action.
type ManageResult struct {
	Action   Action            `json:"action"`
	Request  *RequestView      `json:"request,omitempty"`
	Requests []RequestView     `json:"requests,omitempty"`
	PageInfo *media.PageInfo   `json:"pageInfo,omitempty"`
	Summary  *ListSummary      `json:"summary,omitempty"`
	Deleted  []int             `json:"deleted,omitempty"`
	Batch    *batch.Summary    `json:"batch,omitempty"`
	Results  []MutationResult  `json:"results,omitempty"`
	Errors   []batch.ItemError `json:"errors,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// MutationResult is one entry of a multi-id mutation.
type MutationResult struct {
	RequestID int          `json:"requestId"`
	Success   bool         `json:"success"`
	Request   *RequestView `json:"request,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// ManageRequests gets, lists or mutates requests. Mutations on a list of
// ids run concurrently and report per-id failures.
func (s *Service) ManageRequests(ctx context.Context, args ManageArgs) (*ManageResult, error) {
	switch args.Action {
	case ActionGet:
		return s.get(ctx, args)
	case ActionList:
		return s.list(ctx, args)
	case ActionApprove, ActionDecline, ActionDelete:
		return s.mutate(ctx, args)
	default:
		return nil, batch.Invalid("action", "unknown action %q (want get, list, approve, decline or delete)", args.Action)
	}
}

func (s *Service) get(ctx context.Context, args ManageArgs) (*ManageResult, error) {
	if args.RequestID <= 0 {
		return nil, batch.Invalid("requestId", "required for get")
	}
	ref, err := batch.Retry(ctx, func(ctx context.Context) (*media.RequestRef, error) {
		return s.catalog.Client().GetRequest(ctx, args.RequestID)
	}, s.policy)
	if err != nil {
		return nil, fmt.Errorf("failed to get request %d: %w", args.RequestID, err)
	}
	v := viewOf(*ref)
	return &ManageResult{Action: ActionGet, Request: &v}, nil
}

// ListParams validates and defaults the listing arguments.
func ListParams(args ManageArgs) (media.ListParams, error) {
	p := media.ListParams{Take: args.Take, Skip: args.Skip, Filter: args.Filter, Sort: args.Sort}
	if p.Take == 0 {
		p.Take = defaultTake
	}
	if p.Take < 0 || p.Take > maxTake {
		return p, batch.Invalid("take", "must be between 1 and %d", maxTake)
	}
	if p.Skip < 0 {
		return p, batch.Invalid("skip", "must not be negative")
	}
	if p.Filter == "" {
		p.Filter = "all"
	}
	if _, ok := validFilters[p.Filter]; !ok {
		return p, batch.Invalid("filter", "unknown filter %q", p.Filter)
	}
	if p.Sort == "" {
		p.Sort = "added"
	}
	if p.Sort != "added" && p.Sort != "modified" {
		return p, batch.Invalid("sort", "must be added or modified, got %q", p.Sort)
	}
	return p, nil
}

func (s *Service) list(ctx context.Context, args ManageArgs) (*ManageResult, error) {
	params, err := ListParams(args)
	if err != nil {
		return nil, err
	}
	page, err := batch.Retry(ctx, func(ctx context.Context) (*media.RequestPage, error) {
		return s.catalog.ListRequests(ctx, params)
	}, s.policy)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	out := &ManageResult{Action: ActionList, PageInfo: &page.PageInfo}
	if args.Summary {
		sum := &ListSummary{Total: page.PageInfo.Results, ByStatus: make(map[string]int)}
		for _, r := range page.Results {
			sum.ByStatus[r.Status.String()]++
		}
		out.Summary = sum
		return out, nil
	}

	out.Requests = make([]RequestView, len(page.Results))
	for i, r := range page.Results {
		out.Requests[i] = viewOf(r)
	}
	return out, nil
}

func (s *Service) mutateOne(ctx context.Context, action Action, id int) (*media.RequestRef, error) {
	var (
		ref *media.RequestRef
		err error
	)
	client := s.catalog.Client()
	switch action {
	case ActionApprove:
		ref, err = client.ApproveRequest(ctx, id)
	case ActionDecline:
		ref, err = client.DeclineRequest(ctx, id)
	case ActionDelete:
		err = client.DeleteRequest(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s request %d: %w", action, id, err)
	}
	s.catalog.AfterMutation()
	s.logger.Info().Str("action", string(action)).Int("requestId", id).Msg("Request updated")
	return ref, nil
}

func (s *Service) mutate(ctx context.Context, args ManageArgs) (*ManageResult, error) {
	ids := args.RequestIDs
	if args.RequestID > 0 {
		ids = append([]int{args.RequestID}, ids...)
	}
	ids = uniqueSorted(ids)
	if len(ids) == 0 {
		return nil, batch.Invalid("requestId", "required for %s", args.Action)
	}
	for _, id := range ids {
		if id <= 0 {
			return nil, batch.Invalid("requestIds", "ids must be positive, got %d", id)
		}
	}

	out := &ManageResult{Action: args.Action}

	if len(ids) == 1 {
		ref, err := s.mutateOne(ctx, args.Action, ids[0])
		if err != nil {
			return nil, err
		}
		if ref != nil {
			v := viewOf(*ref)
			out.Request = &v
		}
		if args.Action == ActionDelete {
			out.Deleted = ids
		}
		out.Message = fmt.Sprintf("Request %d: %s done", ids[0], args.Action)
		return out, nil
	}

	results := batch.Run(ctx, ids, func(ctx context.Context, id int) (*media.RequestRef, error) {
		return s.mutateOne(ctx, args.Action, id)
	}, batch.NoRetry())

	summary := batch.Summarize(results)
	out.Batch = &summary
	out.Errors = batch.Errors(results, strconv.Itoa)
	out.Results = make([]MutationResult, len(results))
	for i, r := range results {
		mr := MutationResult{RequestID: r.Item, Success: r.Success}
		if r.Result != nil {
			v := viewOf(*r.Result)
			mr.Request = &v
		}
		if r.Err != nil {
			mr.Error = r.Err.Error()
		} else if args.Action == ActionDelete {
			out.Deleted = append(out.Deleted, r.Item)
		}
		out.Results[i] = mr
	}
	out.Message = fmt.Sprintf("%s: %d of %d succeeded", args.Action, summary.Succeeded, summary.Total)
	return out, nil
}
