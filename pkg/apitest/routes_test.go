package apitest

import (
	"strings"
	"testing"
)

func TestRoutesPath(t *testing.T) {
	cases := []struct {
		name   string
		routes Routes
		suffix string
		detail bool
		args   map[string]string
		want   string
	}{
		{
			name:   "list",
			routes: Routes{Prefix: "/api/", Basename: "tasks"},
			suffix: SuffixList,
			want:   "/api/tasks/",
		},
		{
			name:   "detail",
			routes: Routes{Prefix: "/api", Basename: "tasks"},
			suffix: SuffixDetail,
			detail: true,
			args:   map[string]string{"pk": "7"},
			want:   "/api/tasks/7/",
		},
		{
			name:   "list action",
			routes: Routes{Basename: "projects"},
			suffix: "first",
			want:   "/projects/first/",
		},
		{
			name:   "detail action",
			routes: Routes{Basename: "projects"},
			suffix: "ping",
			detail: true,
			args:   map[string]string{"pk": "1"},
			want:   "/projects/1/ping/",
		},
		{
			name:   "custom detail arg",
			routes: Routes{Basename: "users", DetailArg: "username"},
			suffix: SuffixDetail,
			detail: true,
			args:   map[string]string{"username": "ada lovelace"},
			want:   "/users/ada%20lovelace/",
		},
		{
			name: "pattern override",
			routes: Routes{
				Prefix:   "/v2",
				Basename: "tasks",
				Patterns: map[string]string{"archive": "/{basename}/archive/{year}/"},
			},
			suffix: "archive",
			args:   map[string]string{"year": "2024"},
			want:   "/v2/tasks/archive/2024/",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.routes.Path(tc.suffix, tc.detail, tc.args)
			if err != nil {
				t.Fatalf("path: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestRoutesPathErrors(t *testing.T) {
	if _, err := (Routes{}).Path(SuffixList, false, nil); err == nil {
		t.Fatalf("expected missing basename error")
	}

	_, err := Routes{Basename: "tasks"}.Path(SuffixDetail, true, nil)
	if err == nil {
		t.Fatalf("expected missing argument error")
	}
	if !strings.Contains(err.Error(), "missing path argument(s) pk") {
		t.Fatalf("unexpected error: %v", err)
	}
}
