package apitest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-apismoke/internal/testapp"
	"github.com/goliatone/go-apismoke/pkg/schema"
)

var projectFields = schema.Compact{
	"id":      schema.Integer(),
	"name":    schema.String(),
	"slug":    schema.String(),
	"created": schema.DateTime(),
}

var projectDetailFields = projectFields.Merge(schema.Compact{
	"description": schema.String().Nullable(),
	"tasks_count": schema.Integer().Min(0),
})

var taskFields = schema.Compact{
	"id":      schema.Integer(),
	"project": schema.Integer(),
	"name":    schema.String().MinLength(1),
	"done":    schema.Boolean(),
	"due":     schema.Date().Nullable(),
	"owner": schema.Object(schema.Compact{
		"id":       schema.Integer(),
		"username": schema.String(),
	}).Nullable(),
	"created": schema.DateTime(),
}

func newHandler(t *testing.T) http.Handler {
	t.Helper()

	handler, db, err := testapp.NewDemo(context.Background(), zerolog.Nop())
	if err != nil {
		t.Fatalf("open demo: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return handler
}

func newProjectSuite(t *testing.T) *Suite {
	t.Helper()

	return &Suite{
		Requester:     HandlerRequester{Handler: newHandler(t)},
		Routes:        Routes{Prefix: "/api", Basename: "projects"},
		Schema:        projectFields,
		DetailsSchema: projectDetailFields,
		DetailID:      1,
	}
}

func newTaskSuite(t *testing.T) *Suite {
	t.Helper()

	return &Suite{
		Requester:  HandlerRequester{Handler: newHandler(t)},
		Routes:     Routes{Prefix: "/api", Basename: "tasks"},
		Schema:     taskFields,
		Pagination: schema.Pagination(),
		DetailID:   1,
		Headers:    http.Header{"Authorization": {"Token ada-token"}},
	}
}

type recordingTB struct {
	testing.TB
	failures []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Fatalf(format string, args ...any) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
	runtime.Goexit()
}

// failures runs fn against a TB that records fatal messages.
func failures(fn func(tb testing.TB)) []string {
	tb := &recordingTB{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(tb)
	}()
	<-done
	return tb.failures
}

func TestProjectsReadOnly(t *testing.T) {
	RunReadOnly(t, newProjectSuite(t))
}

func TestProjectsChecklist(t *testing.T) {
	suite := newProjectSuite(t)

	RunChecklist(t, Compose("projects", ReadOnlyAPI, ListAPI, RetrieveAPI), Merge(suite.ReadOnlyChecks(), Checks{
		CheckReadPermissions: func(t *testing.T) {
			suite.AssertObjectList(t, []any{1, 2})
		},
		CheckListDefaultOrdering: func(t *testing.T) {
			names := make([]string, 0, 2)
			for _, item := range suite.GetList(t) {
				names = append(names, fmt.Sprint(item.(map[string]any)["name"]))
			}
			if !sort.StringsAreSorted(names) {
				t.Fatalf("projects not ordered by name: %v", names)
			}
		},
		CheckCreateNotAllowed: func(t *testing.T) {
			suite.Create(t, map[string]any{"name": "Mercury"}, Status(http.StatusMethodNotAllowed))
		},
		CheckUpdateNotAllowed: func(t *testing.T) {
			suite.Update(t, map[string]any{"name": "Mercury"}, false, Status(http.StatusMethodNotAllowed))
			suite.Update(t, map[string]any{"name": "Mercury"}, true, Status(http.StatusMethodNotAllowed))
		},
		CheckDeleteNotAllowed: func(t *testing.T) {
			suite.Delete(t, Status(http.StatusMethodNotAllowed))
		},
		CheckRetrieveObjectSmoke: func(t *testing.T) {
			detail := suite.GetDetail(t)
			if detail["slug"] != "apollo" {
				t.Fatalf("expected apollo, got %v", detail["slug"])
			}
		},
	}))
}

func TestProjectActions(t *testing.T) {
	suite := newProjectSuite(t)

	resp := suite.PerformRequest(t, "first", false)
	suite.AssertJSONSchema(t, resp, suite.ObjectSchema())

	ping := suite.PerformRequest(t, "ping", true, Arg("pk", 2), Status(http.StatusCreated))
	suite.AssertJSONSchema(t, ping, schema.ObjectSchema(schema.Compact{
		"id":   schema.Integer().Enum(2),
		"pong": schema.Boolean(),
	}))

	suite.PerformRequest(t, SuffixDetail, true, Arg("pk", 99), Status(http.StatusNotFound))
}

func TestTasksChecklist(t *testing.T) {
	read := newTaskSuite(t)

	RunChecklist(t, CompleteAPI, Merge(read.ReadOnlyChecks(), Checks{
		CheckAuthorization: func(t *testing.T) {
			suite := newTaskSuite(t)
			suite.Create(t, map[string]any{"name": "Splashdown", "project": 1},
				Header("Authorization", "Token nope"), Status(http.StatusUnauthorized))
			suite.Delete(t, Header("Authorization", ""), Status(http.StatusUnauthorized))
		},
		CheckListDefaultOrdering: func(t *testing.T) {
			read.AssertObjectList(t, []any{2, 1, 4, 3})
		},
		CheckListFilterParams: func(t *testing.T) {
			read.AssertObjectList(t, []any{4}, Query("project", 2))
		},
		CheckCreateValidation: func(t *testing.T) {
			suite := newTaskSuite(t)
			var errs map[string][]string
			if err := suite.Create(t, map[string]any{}, Status(http.StatusBadRequest)).Decode(&errs); err != nil {
				t.Fatalf("decode: %v", err)
			}
			fields := make([]string, 0, len(errs))
			for field := range errs {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			if diff := cmp.Diff([]string{"name", "project"}, fields); diff != "" {
				t.Fatalf("error fields mismatch (-want +got):\n%s", diff)
			}
		},
		CheckCreateFormat: func(t *testing.T) {
			suite := newTaskSuite(t)
			resp := suite.Create(t, map[string]any{"name": "Splashdown", "project": 1, "due": "1969-07-24"})
			suite.AssertJSONSchema(t, resp, suite.DetailSchema())
		},
		CheckCreateObjectSmoke: func(t *testing.T) {
			suite := newTaskSuite(t)
			suite.Create(t, map[string]any{"name": "Splashdown", "project": 2})
			suite.AssertObjectList(t, []any{4, 5}, Query("project", 2))
		},
		CheckPartialUpdateSmoke: func(t *testing.T) {
			suite := newTaskSuite(t)
			resp := suite.Update(t, map[string]any{"done": true}, true)
			suite.AssertJSONSchema(t, resp, suite.DetailSchema())
			if done := suite.GetDetail(t)["done"]; done != true {
				t.Fatalf("expected task to be done, got %v", done)
			}
		},
		CheckFullUpdateValidation: func(t *testing.T) {
			suite := newTaskSuite(t)
			suite.Update(t, map[string]any{"name": "Renamed"}, false, Status(http.StatusBadRequest))
		},
		CheckDeleteObjectSmoke: func(t *testing.T) {
			suite := newTaskSuite(t)
			suite.Delete(t, Arg("pk", 3))
			suite.PerformRequest(t, SuffixDetail, true, Arg("pk", 3), Status(http.StatusNotFound))
		},
	}))
}

func TestCreateWithFormBody(t *testing.T) {
	suite := newTaskSuite(t)

	form := url.Values{"name": {"Splashdown"}, "project": {"1"}, "done": {"on"}}
	resp := suite.Create(t, nil, FormBody(form))
	suite.AssertJSONSchema(t, resp, suite.DetailSchema())

	var task testapp.Task
	if err := resp.Decode(&task); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !task.Done || task.Name != "Splashdown" {
		t.Fatalf("unexpected task: %+v", task)
	}
}

func TestSuiteURL(t *testing.T) {
	suite := &Suite{
		BaseURL:  "http://api.example.com/",
		Routes:   Routes{Prefix: "/api", Basename: "tasks"},
		DetailID: 3,
	}

	got, err := suite.URL(SuffixList, false, Query("id", 1, 2), Query("ordering", "-name"))
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if want := "http://api.example.com/api/tasks/?id=1&id=2&ordering=-name"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	got, err = suite.URL(SuffixDetail, true)
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if want := "http://api.example.com/api/tasks/3/"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	suite.DetailID = nil
	if _, err := suite.URL(SuffixDetail, true); err == nil {
		t.Fatalf("expected error without DetailID")
	}
}

func TestListSchema(t *testing.T) {
	suite := newTaskSuite(t)

	page := suite.ListSchema(0)
	if diff := cmp.Diff([]string{"count", "next", "previous", "results"}, page.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	results := page.Properties["results"]
	if results.MinItems == nil || *results.MinItems != 0 {
		t.Fatalf("expected minItems 0, got %v", results.MinItems)
	}

	suite.Pagination = nil
	list := suite.ListSchema(2)
	if !list.Type.Has(schema.TypeArray) || list.MinItems == nil || *list.MinItems != 2 {
		t.Fatalf("expected bare array with minItems 2, got %+v", list)
	}
}

func TestAssertJSONSchemaReportsMismatch(t *testing.T) {
	suite := newTaskSuite(t)
	suite.Schema = taskFields.Without("created")

	got := failures(func(tb testing.TB) {
		suite.AssertJSONSchema(tb, suite.PerformRequest(tb, SuffixDetail, true), suite.DetailSchema())
	})
	if len(got) != 1 || !strings.Contains(got[0], "created") {
		t.Fatalf("expected failure naming created, got %v", got)
	}
}

func TestPerformRequestReportsStatus(t *testing.T) {
	suite := newTaskSuite(t)

	got := failures(func(tb testing.TB) {
		suite.PerformRequest(tb, SuffixDetail, true, Arg("pk", 42))
	})
	if len(got) != 1 || !strings.Contains(got[0], "expected status 200, got 404") {
		t.Fatalf("unexpected failures: %v", got)
	}
}

func TestAssertObjectListReportsDiff(t *testing.T) {
	suite := newTaskSuite(t)

	got := failures(func(tb testing.TB) {
		suite.AssertObjectList(tb, []any{1, 2, 3, 4})
	})
	if len(got) != 1 || !strings.Contains(got[0], "object list mismatch") {
		t.Fatalf("unexpected failures: %v", got)
	}
}

func TestSuiteOverHTTPClient(t *testing.T) {
	srv := httptest.NewServer(newHandler(t))
	defer srv.Close()

	suite := &Suite{
		Requester:  srv.Client(),
		BaseURL:    srv.URL,
		Routes:     Routes{Prefix: "/api", Basename: "tasks"},
		Schema:     taskFields,
		Pagination: schema.Pagination(),
		DetailID:   2,
	}
	RunReadOnly(t, suite)

	resp, err := suite.Do(context.Background(), SuffixList, false, Query("limit", 1), Query("offset", 3))
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	var page struct {
		Next     *string `json:"next"`
		Previous *string `json:"previous"`
	}
	if err := resp.Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Next != nil {
		t.Fatalf("expected last page, got next %q", *page.Next)
	}
	if page.Previous == nil || !strings.HasPrefix(*page.Previous, srv.URL+"/api/tasks/") {
		t.Fatalf("unexpected previous link: %v", page.Previous)
	}
}

type recordingRequester struct {
	Requester
	queries []url.Values
}

func (r *recordingRequester) Do(req *http.Request) (*http.Response, error) {
	r.queries = append(r.queries, req.URL.Query())
	return r.Requester.Do(req)
}

func TestAssertListFormatRequestsMiddlePage(t *testing.T) {
	suite := newTaskSuite(t)
	rec := &recordingRequester{Requester: suite.Requester}
	suite.Requester = rec

	if got := failures(func(tb testing.TB) { suite.AssertListFormat(tb) }); len(got) != 0 {
		t.Fatalf("unexpected failures: %v", got)
	}
	want := []url.Values{{"limit": {"1"}, "offset": {"1"}}}
	if diff := cmp.Diff(want, rec.queries); diff != "" {
		t.Fatalf("query mismatch (-want +got):\n%s", diff)
	}

	got := failures(func(tb testing.TB) { suite.AssertListFormat(tb, Query("project", 2)) })
	if len(got) != 1 {
		t.Fatalf("expected a failure for a list without a middle page, got %v", got)
	}
}

func TestLinkedPaginationRequiresLinks(t *testing.T) {
	linked := linkedPagination(schema.Pagination())
	for _, key := range []string{"next", "previous"} {
		if linked[key].IsNullable() {
			t.Fatalf("%s should not accept null", key)
		}
	}
	if !schema.Pagination()["next"].IsNullable() {
		t.Fatalf("source pagination was modified")
	}
	if _, ok := linkedPagination(schema.Compact{"count": schema.Integer()})["next"]; ok {
		t.Fatalf("links added to a pagination without them")
	}
}
