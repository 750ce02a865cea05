package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/jhomen368/overseerr-mcp/internal/batch"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error          string            `json:"error"`
	Field          string            `json:"field,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
	UpstreamStatus int               `json:"upstreamStatus,omitempty"`
}

// httpStatusError is implemented by upstream errors that carry the
// status code the upstream service answered with.
type httpStatusError interface {
	HTTPStatus() int
}

// classifyError maps err to a status code and a response body.
func (s *Server) classifyError(err error) (int, ErrorResponse) {
	var (
		verrs    validator.ValidationErrors
		invalid  *batch.ValidationError
		upstream httpStatusError
		he       *echo.HTTPError
	)

	switch {
	case errors.As(err, &verrs):
		return http.StatusBadRequest, ErrorResponse{
			Error:  "validation failed",
			Fields: s.validator.fieldMessages(verrs),
		}

	case errors.As(err, &invalid):
		return http.StatusBadRequest, ErrorResponse{Error: invalid.Error(), Field: invalid.Field}

	case errors.As(err, &he):
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		return he.Code, ErrorResponse{Error: msg}

	case errors.As(err, &upstream):
		code := http.StatusBadGateway
		if upstream.HTTPStatus() == http.StatusNotFound {
			code = http.StatusNotFound
		}
		return code, ErrorResponse{Error: err.Error(), UpstreamStatus: upstream.HTTPStatus()}

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "upstream request timed out"}

	case batch.IsNetworkError(err):
		return http.StatusBadGateway, ErrorResponse{Error: err.Error()}

	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
	}
}

// errorHandler replaces echo's default so every failure has the same body.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, body := s.classifyError(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("uri", c.Request().RequestURI).
			Int("status", code).
			Msg("Request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write error response")
	}
}
