package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sumire/issuetracker/internal/domain"
)

func bodyContext(contentType, body string) echo.Context {
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestReadBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        requestBody
		wantErr     bool
	}{
		{
			name:        "json",
			contentType: "application/json; charset=utf-8",
			body:        `{"_id":"abc","open":false,"assigned_to":null,"status_text":7,"issue_text":""}`,
			want:        requestBody{"_id": "abc", "open": false, "status_text": "7", "issue_text": ""},
		},
		{
			name:        "form",
			contentType: echo.MIMEApplicationForm,
			body:        "_id=abc&issue_title=hello+world&open=&assigned_to=",
			want:        requestBody{"_id": "abc", "issue_title": "hello world"},
		},
		{
			name: "no content type",
			body: "id=abc",
			want: requestBody{"id": "abc"},
		},
		{
			name:        "empty",
			contentType: echo.MIMEApplicationJSON,
			want:        requestBody{},
		},
		{
			name:        "malformed json",
			contentType: echo.MIMEApplicationJSON,
			body:        `{`,
			wantErr:     true,
		},
		{
			name:        "nested json",
			contentType: echo.MIMEApplicationJSON,
			body:        `{"issue_title":{"$ne":""}}`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readBody(bodyContext(tt.contentType, tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestBody_ID(t *testing.T) {
	assert.Equal(t, "a", requestBody{"_id": "a", "id": "b"}.id())
	assert.Equal(t, "b", requestBody{"id": "b"}.id())
	assert.Equal(t, "b", requestBody{"_id": "", "id": "b"}.id())
	assert.Equal(t, "", requestBody{}.id())
}

func TestRequestBody_IssueFields(t *testing.T) {
	fields, err := requestBody{
		"issue_title": "title",
		"assigned_to": "",
		"open":        "false",
	}.issueFields()
	require.NoError(t, err)
	require.NotNil(t, fields.IssueTitle)
	assert.Equal(t, "title", *fields.IssueTitle)
	require.NotNil(t, fields.AssignedTo)
	assert.Equal(t, "", *fields.AssignedTo)
	assert.Nil(t, fields.IssueText)
	assert.Nil(t, fields.CreatedBy)
	require.NotNil(t, fields.Open)
	assert.False(t, *fields.Open)

	fields, err = requestBody{"open": true}.issueFields()
	require.NoError(t, err)
	require.NotNil(t, fields.Open)
	assert.True(t, *fields.Open)

	fields, err = requestBody{"open": ""}.issueFields()
	require.NoError(t, err)
	assert.True(t, fields.Empty())

	fields, err = requestBody{"issue_title": "t", "open": "maybe"}.issueFields()
	assert.ErrorIs(t, err, errInvalidOpen)
	require.NotNil(t, fields.IssueTitle)
	assert.Nil(t, fields.Open)
}

func TestRequestBody_TextFields(t *testing.T) {
	fields := requestBody{"issue_title": "t", "open": "maybe"}.textFields()
	require.NotNil(t, fields.IssueTitle)
	assert.Equal(t, "t", *fields.IssueTitle)
	assert.Nil(t, fields.Open)
}

func TestQueryBody_DropsBlankValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/?_id=&id=abc", nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	body := queryBody(c)
	assert.Equal(t, requestBody{"id": "abc"}, body)
	assert.Equal(t, "abc", body.id())
}
