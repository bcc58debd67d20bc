package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/issuetracker/internal/clock"
	"github.com/sumire/issuetracker/internal/domain"
)

// ---------------------------------------------------------------------------
// mockIssueStore: IssueStore with overridable behaviour
// ---------------------------------------------------------------------------

type mockIssueStore struct {
	insertFunc func(ctx context.Context, project string, issue *domain.Issue) error
	findFunc   func(ctx context.Context, project string, filter domain.IssueFilter) ([]*domain.Issue, error)
	updateFunc func(ctx context.Context, project, id string, fields domain.IssueFields, updatedOn time.Time) error
	deleteFunc func(ctx context.Context, project, id string) error
	pingFunc   func(ctx context.Context) error
}

func (m *mockIssueStore) Insert(ctx context.Context, project string, issue *domain.Issue) error {
	if m.insertFunc != nil {
		return m.insertFunc(ctx, project, issue)
	}
	issue.ID = domain.NewID()
	return nil
}

func (m *mockIssueStore) Find(ctx context.Context, project string, filter domain.IssueFilter) ([]*domain.Issue, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, project, filter)
	}
	return nil, nil
}

func (m *mockIssueStore) UpdateByID(ctx context.Context, project, id string, fields domain.IssueFields, updatedOn time.Time) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, project, id, fields, updatedOn)
	}
	return nil
}

func (m *mockIssueStore) DeleteByID(ctx context.Context, project, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, project, id)
	}
	return nil
}

func (m *mockIssueStore) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

var testNow = time.Date(2026, 3, 14, 15, 9, 26, 535_897_932, time.UTC)

func newTestService(store *mockIssueStore) (*IssueService, *clock.FakeClock) {
	clk := clock.Fake(testNow)
	return NewIssueService(store, clk), clk
}

func ptr[T any](v T) *T { return &v }

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreate_AllFields(t *testing.T) {
	var gotProject string
	var stored *domain.Issue
	svc, _ := newTestService(&mockIssueStore{
		insertFunc: func(_ context.Context, project string, issue *domain.Issue) error {
			gotProject = project
			issue.ID = "601733273117360271c3f371"
			stored = issue
			return nil
		},
	})

	issue, err := svc.Create(context.Background(), "apitest", domain.IssueFields{
		IssueTitle: ptr("Issue"),
		IssueText:  ptr("IssueText"),
		CreatedBy:  ptr("TESTER"),
		AssignedTo: ptr("AI"),
		StatusText: ptr("StatusText"),
	})
	require.NoError(t, err)

	assert.Equal(t, "apitest", gotProject)
	assert.Same(t, stored, issue)
	assert.Equal(t, "601733273117360271c3f371", issue.ID)
	assert.Equal(t, "Issue", issue.IssueTitle)
	assert.Equal(t, "IssueText", issue.IssueText)
	assert.Equal(t, "TESTER", issue.CreatedBy)
	assert.Equal(t, "AI", issue.AssignedTo)
	assert.Equal(t, "StatusText", issue.StatusText)
	assert.True(t, issue.Open)

	wantTime := testNow.Truncate(time.Millisecond)
	assert.Equal(t, wantTime, issue.CreatedOn)
	assert.Equal(t, wantTime, issue.UpdatedOn)
}

func TestCreate_OptionalFieldsDefaultEmpty(t *testing.T) {
	svc, _ := newTestService(&mockIssueStore{})

	issue, err := svc.Create(context.Background(), "apitest", domain.IssueFields{
		IssueTitle: ptr("requiredTitle"),
		IssueText:  ptr("requiredText"),
		CreatedBy:  ptr("importantPerson"),
	})
	require.NoError(t, err)

	assert.Equal(t, "", issue.AssignedTo)
	assert.Equal(t, "", issue.StatusText)
	assert.True(t, domain.ValidID(issue.ID))
}

func TestCreate_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		fields domain.IssueFields
		field  string
	}{
		{
			name:   "no fields",
			fields: domain.IssueFields{},
			field:  "issue_title",
		},
		{
			name:   "empty title",
			fields: domain.IssueFields{IssueTitle: ptr(""), IssueText: ptr("text"), CreatedBy: ptr("me")},
			field:  "issue_title",
		},
		{
			name:   "missing text",
			fields: domain.IssueFields{IssueTitle: ptr("title"), CreatedBy: ptr("me")},
			field:  "issue_text",
		},
		{
			name:   "missing created_by",
			fields: domain.IssueFields{IssueTitle: ptr("title"), IssueText: ptr("text"), AssignedTo: ptr("AI")},
			field:  "created_by",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inserted := false
			svc, _ := newTestService(&mockIssueStore{
				insertFunc: func(context.Context, string, *domain.Issue) error {
					inserted = true
					return nil
				},
			})

			_, err := svc.Create(context.Background(), "apitest", tt.fields)

			var validationErr *domain.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, domain.MsgRequiredFieldsMissing, validationErr.Message)
			assert.Equal(t, tt.field, validationErr.Field)
			assert.False(t, inserted, "nothing should be persisted")
		})
	}
}

func TestCreate_StoreError(t *testing.T) {
	storeErr := errors.New("connection reset")
	svc, _ := newTestService(&mockIssueStore{
		insertFunc: func(context.Context, string, *domain.Issue) error { return storeErr },
	})

	_, err := svc.Create(context.Background(), "apitest", domain.IssueFields{
		IssueTitle: ptr("t"), IssueText: ptr("x"), CreatedBy: ptr("me"),
	})
	assert.ErrorIs(t, err, storeErr)
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestList_PassesFilterThrough(t *testing.T) {
	filter := domain.IssueFilter{Conditions: []domain.Condition{{Field: domain.FieldOpen, Value: false}}}
	want := []*domain.Issue{{ID: domain.NewID(), IssueTitle: "a"}}

	svc, _ := newTestService(&mockIssueStore{
		findFunc: func(_ context.Context, project string, got domain.IssueFilter) ([]*domain.Issue, error) {
			assert.Equal(t, "apitest", project)
			assert.Equal(t, filter, got)
			return want, nil
		},
	})

	issues, err := svc.List(context.Background(), "apitest", filter)
	require.NoError(t, err)
	assert.Equal(t, want, issues)
}

func TestList_UnknownProjectIsEmptyNotNil(t *testing.T) {
	svc, _ := newTestService(&mockIssueStore{})

	issues, err := svc.List(context.Background(), "nobody", domain.IssueFilter{})
	require.NoError(t, err)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)
}

func TestList_UnmatchableSkipsStore(t *testing.T) {
	svc, _ := newTestService(&mockIssueStore{
		findFunc: func(context.Context, string, domain.IssueFilter) ([]*domain.Issue, error) {
			t.Fatal("store should not be queried")
			return nil, nil
		},
	})

	issues, err := svc.List(context.Background(), "apitest", domain.IssueFilter{Unmatchable: true})
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestList_StoreError(t *testing.T) {
	svc, _ := newTestService(&mockIssueStore{
		findFunc: func(context.Context, string, domain.IssueFilter) ([]*domain.Issue, error) {
			return nil, errors.New("timeout")
		},
	})

	_, err := svc.List(context.Background(), "apitest", domain.IssueFilter{})
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUpdate_Success(t *testing.T) {
	id := domain.NewID()
	var gotFields domain.IssueFields
	var gotUpdatedOn time.Time

	svc, clk := newTestService(&mockIssueStore{
		updateFunc: func(_ context.Context, project, gotID string, fields domain.IssueFields, updatedOn time.Time) error {
			assert.Equal(t, "apitest", project)
			assert.Equal(t, id, gotID)
			gotFields = fields
			gotUpdatedOn = updatedOn
			return nil
		},
	})
	clk.Advance(time.Minute)

	fields := domain.IssueFields{IssueTitle: ptr("UPDATED_TITLE"), Open: ptr(false)}
	require.NoError(t, svc.Update(context.Background(), "apitest", id, fields))

	assert.Equal(t, fields, gotFields)
	assert.Equal(t, testNow.Add(time.Minute).Truncate(time.Millisecond), gotUpdatedOn)
}

func TestUpdate_MissingID(t *testing.T) {
	svc, _ := newTestService(&mockIssueStore{})

	err := svc.Update(context.Background(), "apitest", "", domain.IssueFields{IssueTitle: ptr("x")})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.MsgMissingID, validationErr.Message)
	assert.Empty(t, validationErr.ID)
}

func TestUpdate_NoFields(t *testing.T) {
	id := domain.NewID()
	svc, _ := newTestService(&mockIssueStore{})

	err := svc.Update(context.Background(), "apitest", id, domain.IssueFields{})

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.MsgNoUpdateFields, validationErr.Message)
	assert.Equal(t, id, validationErr.ID)
}

func TestUpdate_InvalidID(t *testing.T) {
	svc, _ := newTestService(&mockIssueStore{
		updateFunc: func(context.Context, string, string, domain.IssueFields, time.Time) error {
			t.Fatal("store should not be called for a malformed id")
			return nil
		},
	})

	err := svc.Update(context.Background(), "apitest", "1234567890", domain.IssueFields{IssueTitle: ptr("title")})

	var updateErr *domain.UpdateError
	require.ErrorAs(t, err, &updateErr)
	assert.Equal(t, "1234567890", updateErr.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestUpdate_NotFound(t *testing.T) {
	id := domain.NewID()
	svc, _ := newTestService(&mockIssueStore{
		updateFunc: func(context.Context, string, string, domain.IssueFields, time.Time) error {
			return domain.ErrNotFound
		},
	})

	err := svc.Update(context.Background(), "apitest", id, domain.IssueFields{StatusText: ptr("done")})

	var updateErr *domain.UpdateError
	require.ErrorAs(t, err, &updateErr)
	assert.Equal(t, id, updateErr.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDelete_Success(t *testing.T) {
	id := domain.NewID()
	called := false
	svc, _ := newTestService(&mockIssueStore{
		deleteFunc: func(_ context.Context, project, gotID string) error {
			called = true
			assert.Equal(t, "apitest", project)
			assert.Equal(t, id, gotID)
			return nil
		},
	})

	require.NoError(t, svc.Delete(context.Background(), "apitest", id))
	assert.True(t, called)
}

func TestDelete_MissingID(t *testing.T) {
	svc, _ := newTestService(&mockIssueStore{})

	err := svc.Delete(context.Background(), "apitest", "")

	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, domain.MsgMissingID, validationErr.Message)
}

func TestDelete_InvalidOrUnknownID(t *testing.T) {
	svc, _ := newTestService(&mockIssueStore{
		deleteFunc: func(context.Context, string, string) error { return domain.ErrNotFound },
	})

	for _, id := range []string{"deleteId", domain.NewID()} {
		err := svc.Delete(context.Background(), "apitest", id)

		var deleteErr *domain.DeleteError
		require.ErrorAs(t, err, &deleteErr)
		assert.Equal(t, id, deleteErr.ID)
	}
}
