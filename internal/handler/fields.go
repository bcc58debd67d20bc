package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sumire/issuetracker/internal/domain"
)

const maxBodyBytes = 1 << 20

var errInvalidOpen = errors.New("open is not a boolean")

// requestBody holds the decoded key/value pairs of a JSON or form body.
// Values are strings, except JSON booleans which stay bool. JSON nulls are
// dropped, as are blank form and query values since HTML forms post every
// input. An explicit JSON "" is kept.
type requestBody map[string]any

// readBody decodes the request body as JSON or, for any other content
// type, as application/x-www-form-urlencoded. The raw body is parsed
// directly so that DELETE forms are read too.
func readBody(c echo.Context) (requestBody, error) {
	r := c.Request()
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrInvalidInput, err)
	}

	body := requestBody{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return body, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get(echo.HeaderContentType))
	if mediaType == echo.MIMEApplicationJSON {
		return decodeJSONBody(raw)
	}

	form, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parse form: %v", domain.ErrInvalidInput, err)
	}
	for key := range form {
		if v := form.Get(key); v != "" {
			body[key] = v
		}
	}
	return body, nil
}

// queryBody exposes the first value of each query parameter as a requestBody.
func queryBody(c echo.Context) requestBody {
	body := requestBody{}
	for key, values := range c.QueryParams() {
		if len(values) > 0 && values[0] != "" {
			body[key] = values[0]
		}
	}
	return body
}

func decodeJSONBody(raw []byte) (requestBody, error) {
	var decoded map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode json: %v", domain.ErrInvalidInput, err)
	}

	body := requestBody{}
	for key, v := range decoded {
		switch v := v.(type) {
		case string, bool:
			body[key] = v
		case json.Number:
			body[key] = v.String()
		case nil:
		default:
			return nil, fmt.Errorf("%w: field %q must be a scalar", domain.ErrInvalidInput, key)
		}
	}
	return body, nil
}

// id returns the issue id sent as _id, falling back to the id alias.
func (b requestBody) id() string {
	for _, key := range []string{domain.FieldID, "id"} {
		if id := b.str(key); id != nil && *id != "" {
			return *id
		}
	}
	return ""
}

// str returns a string field when it was sent, including an explicit "".
func (b requestBody) str(key string) *string {
	v, ok := b[key]
	if !ok {
		return nil
	}
	var s string
	switch v := v.(type) {
	case string:
		s = v
	case bool:
		s = strconv.FormatBool(v)
	default:
		return nil
	}
	return &s
}

// textFields collects the string fields that were sent. open is left unset.
func (b requestBody) textFields() domain.IssueFields {
	return domain.IssueFields{
		IssueTitle: b.str(domain.FieldIssueTitle),
		IssueText:  b.str(domain.FieldIssueText),
		CreatedBy:  b.str(domain.FieldCreatedBy),
		AssignedTo: b.str(domain.FieldAssignedTo),
		StatusText: b.str(domain.FieldStatusText),
	}
}

// issueFields collects every mutable field that was sent. The returned error
// is errInvalidOpen when open was sent but is not a boolean; the other
// fields are still populated.
func (b requestBody) issueFields() (domain.IssueFields, error) {
	fields := b.textFields()

	switch v := b[domain.FieldOpen].(type) {
	case bool:
		fields.Open = &v
	case string:
		if v == "" {
			break
		}
		open, err := strconv.ParseBool(v)
		if err != nil {
			return fields, fmt.Errorf("%w: %q", errInvalidOpen, v)
		}
		fields.Open = &open
	}

	return fields, nil
}
