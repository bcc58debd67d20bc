package domain

import "time"

// Issue is a trackable work item stored in its project's collection.
type Issue struct {
	ID         string    `json:"_id" yaml:"_id" db:"id"`
	IssueTitle string    `json:"issue_title" yaml:"issue_title" db:"issue_title"`
	IssueText  string    `json:"issue_text" yaml:"issue_text" db:"issue_text"`
	CreatedOn  time.Time `json:"created_on" yaml:"created_on" db:"created_on"`
	UpdatedOn  time.Time `json:"updated_on" yaml:"updated_on" db:"updated_on"`
	CreatedBy  string    `json:"created_by" yaml:"created_by" db:"created_by"`
	AssignedTo string    `json:"assigned_to" yaml:"assigned_to" db:"assigned_to"`
	StatusText string    `json:"status_text" yaml:"status_text" db:"status_text"`
	Open       bool      `json:"open" yaml:"open" db:"is_open"`
}

// IssueFields is a sparse set of mutable issue fields. A nil pointer means
// the field was not sent.
type IssueFields struct {
	IssueTitle *string
	IssueText  *string
	CreatedBy  *string
	AssignedTo *string
	StatusText *string
	Open       *bool
}

// Empty reports whether no field is set.
func (f IssueFields) Empty() bool {
	return f.IssueTitle == nil &&
		f.IssueText == nil &&
		f.CreatedBy == nil &&
		f.AssignedTo == nil &&
		f.StatusText == nil &&
		f.Open == nil
}

// NewIssue holds the input for creating an issue.
type NewIssue struct {
	IssueTitle string `json:"issue_title" validate:"required"`
	IssueText  string `json:"issue_text" validate:"required"`
	CreatedBy  string `json:"created_by" validate:"required"`
	AssignedTo string `json:"assigned_to"`
	StatusText string `json:"status_text"`
}

// NewIssueFrom flattens a sparse field set into creation input. Omitted
// optional fields become empty strings.
func NewIssueFrom(f IssueFields) NewIssue {
	return NewIssue{
		IssueTitle: deref(f.IssueTitle),
		IssueText:  deref(f.IssueText),
		CreatedBy:  deref(f.CreatedBy),
		AssignedTo: deref(f.AssignedTo),
		StatusText: deref(f.StatusText),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
