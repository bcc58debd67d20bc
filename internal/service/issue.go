package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sumire/issuetracker/internal/clock"
	"github.com/sumire/issuetracker/internal/domain"
)

// IssueStore defines the document-store operations consumed by IssueService.
// Each project is its own collection.
type IssueStore interface {
	// Insert stores a new issue and assigns its ID.
	Insert(ctx context.Context, project string, issue *domain.Issue) error
	// Find returns the issues matching every condition of filter, in insertion order.
	Find(ctx context.Context, project string, filter domain.IssueFilter) ([]*domain.Issue, error)
	// UpdateByID overwrites the set fields and moves updated_on to the later
	// of updatedOn and the stored value plus 1ms. Returns domain.ErrNotFound
	// when no issue has that ID.
	UpdateByID(ctx context.Context, project, id string, fields domain.IssueFields, updatedOn time.Time) error
	// DeleteByID removes an issue. Returns domain.ErrNotFound when no issue has that ID.
	DeleteByID(ctx context.Context, project, id string) error
	Ping(ctx context.Context) error
}

// IssueService implements issue CRUD for a project.
type IssueService struct {
	issues   IssueStore
	clock    clock.Clock
	validate *structValidator
}

// NewIssueService creates a new IssueService.
func NewIssueService(issues IssueStore, clk clock.Clock) *IssueService {
	return &IssueService{
		issues:   issues,
		clock:    clk,
		validate: newStructValidator(),
	}
}

// Create validates the required fields and stores a new open issue.
func (s *IssueService) Create(ctx context.Context, project string, fields domain.IssueFields) (*domain.Issue, error) {
	in := domain.NewIssueFrom(fields)
	if err := s.validate.Validate(in, domain.MsgRequiredFieldsMissing); err != nil {
		return nil, err
	}

	now := s.now()
	issue := &domain.Issue{
		IssueTitle: in.IssueTitle,
		IssueText:  in.IssueText,
		CreatedBy:  in.CreatedBy,
		AssignedTo: in.AssignedTo,
		StatusText: in.StatusText,
		CreatedOn:  now,
		UpdatedOn:  now,
		Open:       true,
	}

	if err := s.issues.Insert(ctx, project, issue); err != nil {
		return nil, fmt.Errorf("insert issue into %s: %w", project, err)
	}
	return issue, nil
}

// List returns the project's issues matching filter. An unknown project
// yields an empty slice.
func (s *IssueService) List(ctx context.Context, project string, filter domain.IssueFilter) ([]*domain.Issue, error) {
	if filter.Unmatchable {
		return []*domain.Issue{}, nil
	}

	issues, err := s.issues.Find(ctx, project, filter)
	if err != nil {
		return nil, fmt.Errorf("find issues in %s: %w", project, err)
	}
	if issues == nil {
		issues = []*domain.Issue{}
	}
	return issues, nil
}

// Update overwrites the sent fields of one issue and refreshes updated_on.
func (s *IssueService) Update(ctx context.Context, project, id string, fields domain.IssueFields) error {
	if id == "" {
		return &domain.ValidationError{Field: domain.FieldID, Message: domain.MsgMissingID}
	}
	if fields.Empty() {
		return &domain.ValidationError{Message: domain.MsgNoUpdateFields, ID: id}
	}
	if !domain.ValidID(id) {
		return &domain.UpdateError{ID: id, Err: domain.ErrInvalidID}
	}

	if err := s.issues.UpdateByID(ctx, project, id, fields, s.now()); err != nil {
		return &domain.UpdateError{ID: id, Err: err}
	}
	return nil
}

// Delete removes one issue.
func (s *IssueService) Delete(ctx context.Context, project, id string) error {
	if id == "" {
		return &domain.ValidationError{Field: domain.FieldID, Message: domain.MsgMissingID}
	}
	if !domain.ValidID(id) {
		return &domain.DeleteError{ID: id, Err: domain.ErrInvalidID}
	}

	if err := s.issues.DeleteByID(ctx, project, id); err != nil {
		return &domain.DeleteError{ID: id, Err: err}
	}
	return nil
}

// Ping checks that the store is reachable.
func (s *IssueService) Ping(ctx context.Context) error {
	return s.issues.Ping(ctx)
}

// now returns the clock time in the precision stored by every backend.
func (s *IssueService) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}
