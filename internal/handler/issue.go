package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sumire/issuetracker/internal/domain"
	"github.com/sumire/issuetracker/internal/service"
)

// IssueHandler serves /api/issues/:project.
type IssueHandler struct {
	issues *service.IssueService
}

// NewIssueHandler creates a new IssueHandler.
func NewIssueHandler(issues *service.IssueService) *IssueHandler {
	return &IssueHandler{issues: issues}
}

// Create stores a new issue and returns the full document. New issues are
// always open, so an open field in the body is not read.
func (h *IssueHandler) Create(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}

	issue, err := h.issues.Create(c.Request().Context(), c.Param("project"), body.textFields())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, issue)
}

// List returns the project's issues matching the query filters.
func (h *IssueHandler) List(c echo.Context) error {
	filter := domain.ParseFilter(c.QueryParams())

	issues, err := h.issues.List(c.Request().Context(), c.Param("project"), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, issues)
}

// Update overwrites the sent fields of one issue.
func (h *IssueHandler) Update(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}

	id := body.id()
	fields, err := body.issueFields()
	if err != nil && id != "" {
		return &domain.UpdateError{ID: id, Err: err}
	}

	if err := h.issues.Update(c.Request().Context(), c.Param("project"), id, fields); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ResultResponse{Result: ResultUpdated, ID: id})
}

// Delete removes one issue. The id may be sent in the body or the query.
func (h *IssueHandler) Delete(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}

	id := body.id()
	if id == "" {
		id = queryBody(c).id()
	}

	if err := h.issues.Delete(c.Request().Context(), c.Param("project"), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ResultResponse{Result: ResultDeleted, ID: id})
}
