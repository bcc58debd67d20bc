package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/issuetracker/internal/domain"
)

// Result messages for successful mutations.
const (
	ResultUpdated = "successfully updated"
	ResultDeleted = "successfully deleted"
)

// ResultResponse acknowledges a successful update or delete.
type ResultResponse struct {
	Result string `json:"result"`
	ID     string `json:"_id"`
}

// ErrorResponse carries a client-facing error message. ID echoes the issue
// the request referred to, when there was one.
type ErrorResponse struct {
	Error string `json:"error"`
	ID    string `json:"_id,omitempty"`
}

// HTTPErrorHandler is the global error handler for echo. Domain outcomes are
// reported with status 200; transport failures keep their HTTP status.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := mapError(err)
	if jsonErr := c.JSON(status, body); jsonErr != nil {
		slog.Error("failed to send error response", "error", jsonErr)
	}
}

func mapError(err error) (int, ErrorResponse) {
	// Handle echo's own HTTP errors (404, 405, etc.)
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		msg, _ := echoErr.Message.(string)
		if msg == "" {
			msg = http.StatusText(echoErr.Code)
		}
		return echoErr.Code, ErrorResponse{Error: msg}
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusOK, ErrorResponse{Error: validationErr.Message, ID: validationErr.ID}
	}

	var updateErr *domain.UpdateError
	if errors.As(err, &updateErr) {
		logStoreFailure(err, updateErr.Err)
		return http.StatusOK, ErrorResponse{Error: domain.MsgCouldNotUpdate, ID: updateErr.ID}
	}

	var deleteErr *domain.DeleteError
	if errors.As(err, &deleteErr) {
		logStoreFailure(err, deleteErr.Err)
		return http.StatusOK, ErrorResponse{Error: domain.MsgCouldNotDelete, ID: deleteErr.ID}
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrorResponse{Error: "invalid request body"}
	default:
		slog.Error("unhandled error", "error", err)
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error"}
	}
}

// logStoreFailure logs mutation failures that are not explained by the
// client's input.
func logStoreFailure(err, cause error) {
	if errors.Is(cause, domain.ErrNotFound) ||
		errors.Is(cause, domain.ErrInvalidID) ||
		errors.Is(cause, errInvalidOpen) {
		slog.Debug("mutation rejected", "error", err)
		return
	}
	slog.Error("mutation failed", "error", err)
}
