package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"buildtrend/src/buildstore"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "builds.json")
	s := buildstore.New(path)
	s.Put("2018-08-20T10:15:00", buildstore.Record{Duration: 2400, PullRequest: 151, URI: "https://ci.example.com/151/e2e-aws/1/"})
	s.Put("2018-09-20T00:00:00", buildstore.Record{Duration: 1800, PullRequest: 300, URI: "https://ci.example.com/300/e2e-aws/9/"})
	s.Put("2018-10-04T08:00:03", buildstore.Record{Duration: 1500, PullRequest: 415, URI: "https://ci.example.com/415/e2e-aws/3/"})
	if err := s.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return NewServer(path)
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("content is %T, want text", res.Content[0])
	}
	return text.Text
}

func TestNewServer_RegistersTools(t *testing.T) {
	srv := NewServer(filepath.Join(t.TempDir(), "builds.json"))
	for _, name := range []string{"list_builds", "get_build", "build_stats"} {
		if srv.mcpServer.GetTool(name) == nil {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestHandleListBuilds(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name        string
		args        map[string]any
		wantMatched int
		wantStarts  []string
	}{
		{
			name:        "all",
			args:        map[string]any{},
			wantMatched: 3,
			wantStarts:  []string{"2018-08-20T10:15:00", "2018-09-20T00:00:00", "2018-10-04T08:00:03"},
		},
		{
			name:        "limit keeps most recent",
			args:        map[string]any{"limit": float64(2)},
			wantMatched: 3,
			wantStarts:  []string{"2018-09-20T00:00:00", "2018-10-04T08:00:03"},
		},
		{
			name:        "since",
			args:        map[string]any{"since": "2018-09-01"},
			wantMatched: 2,
			wantStarts:  []string{"2018-09-20T00:00:00", "2018-10-04T08:00:03"},
		},
		{
			name:        "since and until",
			args:        map[string]any{"since": "2018-09-01", "until": "2018-10-01"},
			wantMatched: 1,
			wantStarts:  []string{"2018-09-20T00:00:00"},
		},
		{
			name:        "nothing in range",
			args:        map[string]any{"since": "2019-01-01"},
			wantMatched: 0,
			wantStarts:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := srv.handleListBuilds(context.Background(), call(tt.args))
			if err != nil {
				t.Fatalf("handleListBuilds() error = %v", err)
			}
			if res.IsError {
				t.Fatalf("handleListBuilds() tool error: %s", resultText(t, res))
			}

			var list BuildList
			if err := json.Unmarshal([]byte(resultText(t, res)), &list); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if list.Matched != tt.wantMatched {
				t.Errorf("Matched = %d, want %d", list.Matched, tt.wantMatched)
			}
			var starts []string
			for _, b := range list.Builds {
				starts = append(starts, b.Start)
			}
			if strings.Join(starts, ",") != strings.Join(tt.wantStarts, ",") {
				t.Errorf("starts = %v, want %v", starts, tt.wantStarts)
			}
		})
	}
}

func TestHandleListBuilds_BadLimit(t *testing.T) {
	srv := newTestServer(t)
	res, err := srv.handleListBuilds(context.Background(), call(map[string]any{"limit": float64(0)}))
	if err != nil {
		t.Fatalf("handleListBuilds() error = %v", err)
	}
	if !res.IsError {
		t.Error("expected tool error for zero limit")
	}
}

func TestHandleGetBuild(t *testing.T) {
	srv := newTestServer(t)

	res, err := srv.handleGetBuild(context.Background(), call(map[string]any{"start": "2018-10-04T08:00:03"}))
	if err != nil {
		t.Fatalf("handleGetBuild() error = %v", err)
	}
	var b Build
	if err := json.Unmarshal([]byte(resultText(t, res)), &b); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if b.PullRequest != 415 || b.Duration != 1500 || b.Minutes != 25 {
		t.Errorf("get_build = %+v", b)
	}

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "missing start", args: map[string]any{}, want: "start parameter is required"},
		{name: "unknown start", args: map[string]any{"start": "2017-01-01T00:00:00"}, want: "build not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := srv.handleGetBuild(context.Background(), call(tt.args))
			if !res.IsError {
				t.Fatal("expected tool error")
			}
			if got := resultText(t, res); !strings.Contains(got, tt.want) {
				t.Errorf("error text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleBuildStats(t *testing.T) {
	srv := newTestServer(t)

	res, err := srv.handleBuildStats(context.Background(), call(map[string]any{}))
	if err != nil {
		t.Fatalf("handleBuildStats() error = %v", err)
	}
	var stats BuildStats
	if err := json.Unmarshal([]byte(resultText(t, res)), &stats); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if stats.Count != 3 || stats.MinMinutes != 25 || stats.MaxMinutes != 40 || stats.MedianMinutes != 30 {
		t.Errorf("build_stats = %+v", stats)
	}
	if stats.First != "2018-08-20T10:15:00" || stats.Last != "2018-10-04T08:00:03" {
		t.Errorf("build_stats range = %s..%s", stats.First, stats.Last)
	}

	res, _ = srv.handleBuildStats(context.Background(), call(map[string]any{"since": "2030-01-01"}))
	stats = BuildStats{}
	json.Unmarshal([]byte(resultText(t, res)), &stats)
	if stats.Count != 0 {
		t.Errorf("empty range count = %d", stats.Count)
	}
}

func TestHandlers_MissingStoreIsEmpty(t *testing.T) {
	srv := NewServer(filepath.Join(t.TempDir(), "absent.json"))

	res, err := srv.handleListBuilds(context.Background(), call(map[string]any{}))
	if err != nil || res.IsError {
		t.Fatalf("handleListBuilds() = %v, %v", res, err)
	}
	if got := resultText(t, res); got != `{"matched":0,"builds":[]}` {
		t.Errorf("list_builds on missing store = %s", got)
	}
}

type failingSource struct{}

func (failingSource) Load() (*buildstore.Store, error) {
	return nil, errors.New("disk on fire")
}

func TestHandlers_LoadError(t *testing.T) {
	srv := NewServerWithSource(failingSource{})
	ctx := context.Background()

	for name, handle := range map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_builds": srv.handleListBuilds,
		"get_build":   srv.handleGetBuild,
		"build_stats": srv.handleBuildStats,
	} {
		t.Run(name, func(t *testing.T) {
			res, err := handle(ctx, call(map[string]any{"start": "x"}))
			if err != nil {
				t.Fatalf("handler returned Go error %v, want tool error", err)
			}
			if !res.IsError || !strings.Contains(resultText(t, res), "disk on fire") {
				t.Errorf("result = %+v, want load failure", res)
			}
		})
	}
}
