package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jhomen368/overseerr-mcp/internal/dedupe"
	"github.com/jhomen368/overseerr-mcp/internal/details"
	"github.com/jhomen368/overseerr-mcp/internal/requests"
)

// DedupeRequest is the body of POST /api/v1/dedupe.
type DedupeRequest struct {
	Titles []string `json:"titles" validate:"required,min=1,max=500,dive,required"`
	dedupe.Options
}

// MediaRequest is the body of POST /api/v1/requests/media. Items, when
// present, turn it into a multi-item request sharing the other fields.
type MediaRequest struct {
	requests.Args
	Items []requests.Item `json:"items,omitempty" validate:"omitempty,max=50,dive"`
}

// bind decodes and validates the request body into v.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return err
	}
	return c.Validate(v)
}

// POST /api/v1/dedupe
func (s *Server) dedupeTitles(c echo.Context) error {
	var req DedupeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	report, err := s.dedupe.ClassifyTitles(c.Request().Context(), req.Titles, req.Options)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// POST /api/v1/requests/media
func (s *Server) requestMedia(c echo.Context) error {
	var req MediaRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	if len(req.Items) > 0 {
		out, err := s.requests.RequestMany(ctx, requests.ExpandItems(req.Args, req.Items))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, out)
	}

	out, err := s.requests.RequestMedia(ctx, req.Args)
	if err != nil {
		return err
	}
	code := http.StatusOK
	if out.Status == requests.OutcomeCreated {
		code = http.StatusCreated
	}
	return c.JSON(code, out)
}

// POST /api/v1/requests/manage
func (s *Server) manageRequests(c echo.Context) error {
	var req requests.ManageArgs
	if err := bind(c, &req); err != nil {
		return err
	}

	out, err := s.requests.ManageRequests(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// POST /api/v1/media/details
func (s *Server) mediaDetails(c echo.Context) error {
	var req details.Args
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	if len(req.Items) > 0 {
		out, err := s.details.GetMany(ctx, req)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, out)
	}

	out, err := s.details.GetMediaDetails(ctx, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// POST /api/v1/media/search
func (s *Server) searchMedia(c echo.Context) error {
	var req details.SearchArgs
	if err := bind(c, &req); err != nil {
		return err
	}
	out, err := s.details.Search(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}
