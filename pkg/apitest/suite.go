package apitest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-apismoke/pkg/schema"
	"github.com/goliatone/go-apismoke/pkg/validation"
)

// DefaultPKField is the object key compared by AssertObjectList.
const DefaultPKField = "id"

// Suite tests one API resource.
type Suite struct {
	// Requester sends requests. Use HandlerRequester for in-process
	// handlers or an *http.Client together with BaseURL.
	Requester Requester
	BaseURL   string

	// Validator checks responses. A validator with format assertions is
	// used when nil.
	Validator *validation.Validator

	Routes Routes

	// Schema describes objects in list responses.
	Schema schema.Compact
	// DetailsSchema describes the detail response; Schema when nil.
	DetailsSchema schema.Compact
	// Pagination holds the envelope fields of paginated list responses.
	// Nil means the list endpoint returns a bare array.
	Pagination schema.Compact
	ResultsKey string

	PKField string
	// DetailID addresses the object used by detail requests that carry no
	// explicit path argument.
	DetailID any

	// Headers are sent with every request.
	Headers http.Header
	Logger  zerolog.Logger
}

var defaultValidator = validation.New(validation.WithCache())

func (s *Suite) validator() *validation.Validator {
	if s.Validator == nil {
		return defaultValidator
	}
	return s.Validator
}

func (s *Suite) pkField() string {
	if s.PKField == "" {
		return DefaultPKField
	}
	return s.PKField
}

func (s *Suite) resultsKey() string {
	if s.ResultsKey == "" {
		return schema.DefaultResultsKey
	}
	return s.ResultsKey
}

// Paginated reports whether list responses carry a page envelope.
func (s *Suite) Paginated() bool {
	return s.Pagination != nil
}

// URL builds the request URL for suffix. detail injects DetailID as the
// detail argument unless a path argument was passed explicitly.
func (s *Suite) URL(suffix string, detail bool, opts ...Option) (string, error) {
	return s.url(suffix, detail, newRequest(http.MethodGet, http.StatusOK, opts))
}

func (s *Suite) url(suffix string, detail bool, req *request) (string, error) {
	args := req.args
	if detail && len(args) == 0 {
		if s.DetailID == nil {
			return "", errors.New("apitest: detail request without DetailID or path argument")
		}
		args = map[string]string{s.Routes.detailArg(): fmt.Sprint(s.DetailID)}
	}
	path, err := s.Routes.Path(suffix, detail, args)
	if err != nil {
		return "", err
	}
	if encoded := req.query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return strings.TrimRight(s.BaseURL, "/") + path, nil
}

// Do sends a request to the endpoint named by suffix and reads the whole
// response. The expected status is not checked.
func (s *Suite) Do(ctx context.Context, suffix string, detail bool, opts ...Option) (*Response, error) {
	return s.do(ctx, suffix, detail, newRequest(http.MethodGet, http.StatusOK, opts))
}

func (s *Suite) do(ctx context.Context, suffix string, detail bool, req *request) (*Response, error) {
	if s.Requester == nil {
		return nil, errors.New("apitest: suite has no requester")
	}
	target, err := s.url(suffix, detail, req)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.hasJSON:
		encoded, err := json.Marshal(req.jsonBody)
		if err != nil {
			return nil, fmt.Errorf("apitest: encode body: %w", err)
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	case req.form != nil:
		body = strings.NewReader(req.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, fmt.Errorf("apitest: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for key, values := range s.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	for key, values := range req.header {
		httpReq.Header.Del(key)
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	start := time.Now()
	resp, err := s.Requester.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("apitest: %s %s: %w", req.method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("apitest: read response: %w", err)
	}
	s.Logger.Debug().
		Str("method", req.method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("apitest request")

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// PerformRequest sends a GET (or the method set with Method) to suffix and
// fails t unless the response has the expected status, 200 by default.
func (s *Suite) PerformRequest(t testing.TB, suffix string, detail bool, opts ...Option) *Response {
	t.Helper()
	return s.perform(t, suffix, detail, newRequest(http.MethodGet, http.StatusOK, opts))
}

func (s *Suite) perform(t testing.TB, suffix string, detail bool, req *request) *Response {
	t.Helper()

	resp, err := s.do(context.Background(), suffix, detail, req)
	if err != nil {
		t.Fatalf("%v", err)
		return nil
	}
	if resp.StatusCode != req.status {
		t.Fatalf("%s %s: expected status %d, got %d: %s", req.method, suffix, req.status, resp.StatusCode, truncate(resp.Body))
		return nil
	}
	return resp
}

// GetList requests the list endpoint and returns its objects, stripping
// the page envelope when the suite is paginated.
func (s *Suite) GetList(t testing.TB, opts ...Option) []any {
	t.Helper()

	data := decodeJSON(t, s.PerformRequest(t, SuffixList, false, opts...))
	if s.Paginated() {
		envelope, ok := data.(map[string]any)
		if !ok {
			t.Fatalf("list: expected a page object, got %T", data)
			return nil
		}
		data = envelope[s.resultsKey()]
	}
	items, ok := data.([]any)
	if !ok {
		t.Fatalf("list: expected an array of objects, got %T", data)
		return nil
	}
	return items
}

// GetDetail requests the detail endpoint and returns the decoded object.
func (s *Suite) GetDetail(t testing.TB, opts ...Option) map[string]any {
	t.Helper()
	return decodeObject(t, s.PerformRequest(t, SuffixDetail, true, opts...))
}

// ObjectSchema is the strict schema of a list item.
func (s *Suite) ObjectSchema() schema.Schema {
	return schema.ObjectSchema(s.Schema)
}

// DetailSchema is the strict schema of the detail response.
func (s *Suite) DetailSchema() schema.Schema {
	if s.DetailsSchema == nil {
		return s.ObjectSchema()
	}
	return schema.ObjectSchema(s.DetailsSchema)
}

// ListSchema is the strict schema of the list response holding at least
// minItems objects, wrapped in the page envelope when paginated.
func (s *Suite) ListSchema(minItems int) schema.Schema {
	list := schema.ArraySchema(s.ObjectSchema())
	list.MinItems = &minItems
	if !s.Paginated() {
		return list
	}
	return schema.PageSchema(s.Pagination, s.resultsKey(), list)
}

// AssertJSONSchema fails t when body does not match sch. body may be a
// decoded value, raw JSON bytes or a *Response.
func (s *Suite) AssertJSONSchema(t testing.TB, body any, sch schema.Schema) {
	t.Helper()

	if resp, ok := body.(*Response); ok {
		body = resp.Body
	}
	if err := s.validator().Validate(sch, body); err != nil {
		s.Logger.Warn().Err(err).Str("resource", s.Routes.Basename).Msg("response does not match schema")
		t.Fatalf("%v", err)
	}
}

// AssertObjectList requests the list endpoint and compares the primary keys
// of the returned objects with expected, in order.
func (s *Suite) AssertObjectList(t testing.TB, expected []any, opts ...Option) {
	t.Helper()

	items := s.GetList(t, opts...)
	got := make([]string, 0, len(items))
	for i, item := range items {
		object, ok := item.(map[string]any)
		if !ok {
			t.Fatalf("list[%d]: expected an object, got %T", i, item)
			return
		}
		got = append(got, fmt.Sprint(object[s.pkField()]))
	}
	want := make([]string, 0, len(expected))
	for _, id := range expected {
		want = append(want, fmt.Sprint(id))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("object list mismatch (-want +got):\n%s", diff)
	}
}

// Create posts body to the list endpoint and expects 201.
func (s *Suite) Create(t testing.TB, body any, opts ...Option) *Response {
	t.Helper()
	req := newRequest(http.MethodPost, http.StatusCreated, append([]Option{JSONBody(body)}, opts...))
	return s.perform(t, SuffixList, false, req)
}

// Update sends body to the detail endpoint with PUT, or PATCH when partial,
// and expects 200.
func (s *Suite) Update(t testing.TB, body any, partial bool, opts ...Option) *Response {
	t.Helper()
	method := http.MethodPut
	if partial {
		method = http.MethodPatch
	}
	req := newRequest(method, http.StatusOK, append([]Option{JSONBody(body)}, opts...))
	return s.perform(t, SuffixDetail, true, req)
}

// Delete sends DELETE to the detail endpoint and expects 204.
func (s *Suite) Delete(t testing.TB, opts ...Option) *Response {
	t.Helper()
	return s.perform(t, SuffixDetail, true, newRequest(http.MethodDelete, http.StatusNoContent, opts))
}

// TestListFormat checks the list response against ListSchema(1).
func (s *Suite) TestListFormat(t *testing.T) {
	t.Helper()
	s.AssertListFormat(t)
}

// AssertListFormat requests the list and matches it against ListSchema(1).
// Paginated lists are requested one object per page at offset 1, so the
// page has a neighbour on each side and both links must be strings. Such a
// list needs at least three objects.
func (s *Suite) AssertListFormat(t testing.TB, opts ...Option) {
	t.Helper()

	sch := s.ListSchema(1)
	if s.Paginated() {
		opts = append([]Option{Query("limit", 1), Query("offset", 1)}, opts...)
		sch = schema.PageSchema(linkedPagination(s.Pagination), s.resultsKey(), sch.Properties[s.resultsKey()])
	}
	resp := s.PerformRequest(t, SuffixList, false, opts...)
	s.AssertJSONSchema(t, resp, sch)
}

// linkedPagination requires the next and previous links of p.
func linkedPagination(p schema.Compact) schema.Compact {
	out := p.Clone()
	for _, key := range []string{"next", "previous"} {
		if _, ok := out[key]; ok {
			out[key] = schema.String()
		}
	}
	return out
}

// TestDetailFormat checks the detail response against DetailSchema.
func (s *Suite) TestDetailFormat(t *testing.T) {
	t.Helper()

	resp := s.PerformRequest(t, SuffixDetail, true)
	s.AssertJSONSchema(t, resp, s.DetailSchema())
}

// ReadOnlyChecks maps the format checks of s to their checklist entries.
func (s *Suite) ReadOnlyChecks() Checks {
	return Checks{
		CheckListFormat:   s.TestListFormat,
		CheckDetailFormat: s.TestDetailFormat,
	}
}

// RunReadOnly runs the list and detail format checks of s as subtests.
func RunReadOnly(t *testing.T, s *Suite) {
	t.Helper()

	t.Run(string(CheckListFormat), s.TestListFormat)
	t.Run(string(CheckDetailFormat), s.TestDetailFormat)
}

func decodeJSON(t testing.TB, resp *Response) any {
	t.Helper()

	data, err := resp.JSON()
	if err != nil {
		t.Fatalf("%v", err)
	}
	return data
}

func decodeObject(t testing.TB, resp *Response) map[string]any {
	t.Helper()

	data := decodeJSON(t, resp)
	object, ok := data.(map[string]any)
	if !ok {
		t.Fatalf("expected a JSON object, got %T", data)
	}
	return object
}

func truncate(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
