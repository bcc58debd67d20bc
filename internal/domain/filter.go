package domain

import (
	"net/url"
	"slices"
	"strconv"
	"time"
)

// Issue field names as they appear on the wire and in document stores.
const (
	FieldID         = "_id"
	FieldIssueTitle = "issue_title"
	FieldIssueText  = "issue_text"
	FieldCreatedBy  = "created_by"
	FieldAssignedTo = "assigned_to"
	FieldStatusText = "status_text"
	FieldOpen       = "open"
	FieldCreatedOn  = "created_on"
	FieldUpdatedOn  = "updated_on"
)

// fieldAliases maps accepted alternate keys onto canonical field names.
var fieldAliases = map[string]string{
	"id": FieldID,
}

// CanonicalField resolves aliases such as "id" to the stored field name.
func CanonicalField(key string) string {
	if canonical, ok := fieldAliases[key]; ok {
		return canonical
	}
	return key
}

// Condition is one exact-match predicate. Value is a string, bool or
// time.Time depending on the field.
type Condition struct {
	Field string
	Value any
}

// IssueFilter is a conjunction of exact-match conditions. Unmatchable is set
// when a supplied filter can never equal a stored value.
type IssueFilter struct {
	Conditions  []Condition
	Unmatchable bool
}

// ParseFilter builds a filter from query parameters. Only the first value of
// each key is used. Conditions are ordered by field name.
func ParseFilter(q url.Values) IssueFilter {
	var f IssueFilter

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		field := CanonicalField(key)
		if seen[field] {
			continue
		}
		seen[field] = true

		raw := q.Get(key)
		switch field {
		case FieldID:
			if !ValidID(raw) {
				f.Unmatchable = true
				continue
			}
			f.Conditions = append(f.Conditions, Condition{Field: field, Value: raw})
		case FieldIssueTitle, FieldIssueText, FieldCreatedBy, FieldAssignedTo, FieldStatusText:
			f.Conditions = append(f.Conditions, Condition{Field: field, Value: raw})
		case FieldOpen:
			open, err := strconv.ParseBool(raw)
			if err != nil {
				f.Unmatchable = true
				continue
			}
			f.Conditions = append(f.Conditions, Condition{Field: field, Value: open})
		case FieldCreatedOn, FieldUpdatedOn:
			ts, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				f.Unmatchable = true
				continue
			}
			f.Conditions = append(f.Conditions, Condition{Field: field, Value: ts.UTC()})
		default:
			f.Unmatchable = true
		}
	}

	return f
}
