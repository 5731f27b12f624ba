package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digest/internal/issues"
	"digest/internal/models"
	"digest/internal/projects"
	"digest/internal/store"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// newTestServer creates a Server backed by a throwaway file store.
func newTestServer(t *testing.T) (*Server, *issues.Tracker, *projects.Registry) {
	t.Helper()
	s := store.Open(filepath.Join(t.TempDir(), "user_settings.json"), nil)
	tracker := issues.New(s, nil)
	registry := projects.New(s, nil)
	srv := NewServer(tracker, registry, "default")
	require.NotNil(t, srv)
	return srv, tracker, registry
}

// callToolReq builds a mcpgo.CallToolRequest with the given name and arguments.
func callToolReq(name string, args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the concatenated text from a CallToolResult.
func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		tc, ok := c.(mcpgo.TextContent)
		if ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// resultJSON parses the text result as JSON into the provided target.
func resultJSON(t *testing.T, result *mcpgo.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	err := json.Unmarshal([]byte(text), target)
	require.NoError(t, err, "failed to parse result JSON: %s", text)
}

func seedIssue(t *testing.T, tracker *issues.Tracker, user, text, ts string) string {
	t.Helper()
	return tracker.Create(user, models.CandidateIssue{
		Title:        text,
		OriginalText: text,
		Channel:      "C100",
		Reporter:     "U001",
		Timestamp:    ts,
		MessageTS:    ts,
		Types:        []models.IssueType{models.IssueTypeBug},
		Priority:     models.IssuePriorityMedium,
		Tags:         []models.IssueType{models.IssueTypeBug},
	})
}

// ---------------------------------------------------------------------------
// Tests: digest_detect_issues
// ---------------------------------------------------------------------------

func TestHandleDetectIssues(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	messages := `[
		{"text":"Critical failure in the power supply","user":"U001","channel":"C100","ts":"1.0"},
		{"text":"lunch anyone?","user":"U002","channel":"C100","ts":"2.0"}
	]`

	req := callToolReq("digest_detect_issues", map[string]any{"messages": messages})
	result, err := srv.handleDetectIssues(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	var out []struct {
		Title    string   `json:"title"`
		Types    []string `json:"types"`
		Priority string   `json:"priority"`
		ID       string   `json:"id"`
	}
	resultJSON(t, result, &out)
	require.Len(t, out, 1, "only the issue-bearing message is detected")
	assert.Equal(t, []string{"failure", "critical"}, out[0].Types)
	assert.Equal(t, "critical", out[0].Priority)
	assert.Empty(t, out[0].ID, "no id without track=true")
}

func TestHandleDetectIssues_Track(t *testing.T) {
	srv, tracker, _ := newTestServer(t)
	ctx := context.Background()

	messages := `[{"text":"the deploy failed","user":"U001","channel":"C100","ts":"1.0"}]`
	req := callToolReq("digest_detect_issues", map[string]any{
		"messages": messages,
		"track":    true,
		"user":     "alice",
	})
	result, err := srv.handleDetectIssues(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out []struct {
		ID string `json:"id"`
	}
	resultJSON(t, result, &out)
	require.Len(t, out, 1)
	require.NotEmpty(t, out[0].ID)

	issue, ok := tracker.Get("alice", out[0].ID)
	require.True(t, ok, "tracked under the named user")
	assert.Equal(t, models.IssueStatusOpen, issue.Status)
}

func TestHandleDetectIssues_BadInput(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	result, err := srv.handleDetectIssues(ctx, callToolReq("digest_detect_issues", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError, "missing messages parameter")

	result, err = srv.handleDetectIssues(ctx, callToolReq("digest_detect_issues",
		map[string]any{"messages": "not json"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "invalid messages JSON")
}

// ---------------------------------------------------------------------------
// Tests: digest_list_issues
// ---------------------------------------------------------------------------

func TestHandleListIssues(t *testing.T) {
	srv, tracker, _ := newTestServer(t)
	ctx := context.Background()

	a := seedIssue(t, tracker, "default", "broken sensor", "1.0")
	b := seedIssue(t, tracker, "default", "flaky deploy", "2.0")
	require.True(t, tracker.UpdateStatus("default", b, models.IssueStatusResolved, ""))

	result, err := srv.handleListIssues(ctx, callToolReq("digest_list_issues", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var all map[string]*models.Issue
	resultJSON(t, result, &all)
	assert.Len(t, all, 2)

	result, err = srv.handleListIssues(ctx, callToolReq("digest_list_issues",
		map[string]any{"status": "open"}))
	require.NoError(t, err)
	var open map[string]*models.Issue
	resultJSON(t, result, &open)
	require.Len(t, open, 1)
	assert.Contains(t, open, a)
}

func TestHandleListIssues_UnknownStatus(t *testing.T) {
	srv, _, _ := newTestServer(t)
	result, err := srv.handleListIssues(context.Background(),
		callToolReq("digest_list_issues", map[string]any{"status": "archived"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "unknown status")
}

// ---------------------------------------------------------------------------
// Tests: digest_create_issue
// ---------------------------------------------------------------------------

func TestHandleCreateIssue(t *testing.T) {
	srv, tracker, _ := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("digest_create_issue", map[string]any{
		"text":     "Urgent: the PCB thermal sensor crashed",
		"channel":  "C100",
		"reporter": "U001",
		"ts":       "1700000000.000100",
	})
	result, err := srv.handleCreateIssue(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out map[string]string
	resultJSON(t, result, &out)
	require.Len(t, out["id"], 8)

	issue, ok := tracker.Get("default", out["id"])
	require.True(t, ok)
	assert.Equal(t, models.IssuePriorityCritical, issue.Priority)
	assert.Contains(t, issue.Tags, models.IssueTypeHardware)
	assert.Equal(t, "U001", issue.Reporter)
}

func TestHandleCreateIssue_MissingText(t *testing.T) {
	srv, _, _ := newTestServer(t)
	result, err := srv.handleCreateIssue(context.Background(),
		callToolReq("digest_create_issue", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// ---------------------------------------------------------------------------
// Tests: digest_update_issue_status
// ---------------------------------------------------------------------------

func TestHandleUpdateIssueStatus(t *testing.T) {
	srv, tracker, _ := newTestServer(t)
	ctx := context.Background()

	id := seedIssue(t, tracker, "default", "broken sensor", "1.0")

	req := callToolReq("digest_update_issue_status", map[string]any{
		"issue_id":   id,
		"status":     "investigating",
		"updated_by": "U002",
	})
	result, err := srv.handleUpdateIssueStatus(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var issue models.Issue
	resultJSON(t, result, &issue)
	assert.Equal(t, models.IssueStatusInvestigating, issue.Status)
	require.Len(t, issue.StatusHistory, 2)
	assert.Equal(t, "U002", issue.StatusHistory[1].User)
}

func TestHandleUpdateIssueStatus_Errors(t *testing.T) {
	srv, tracker, _ := newTestServer(t)
	ctx := context.Background()
	id := seedIssue(t, tracker, "default", "broken sensor", "1.0")

	result, err := srv.handleUpdateIssueStatus(ctx, callToolReq("digest_update_issue_status",
		map[string]any{"issue_id": id, "status": "fixed"}))
	require.NoError(t, err)
	assert.True(t, result.IsError, "unknown status rejected")

	result, err = srv.handleUpdateIssueStatus(ctx, callToolReq("digest_update_issue_status",
		map[string]any{"issue_id": "deadbeef", "status": "closed"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "issue not found")

	result, err = srv.handleUpdateIssueStatus(ctx, callToolReq("digest_update_issue_status",
		map[string]any{"status": "closed"}))
	require.NoError(t, err)
	assert.True(t, result.IsError, "missing issue_id")
}

// ---------------------------------------------------------------------------
// Tests: digest_search_issues
// ---------------------------------------------------------------------------

func TestHandleSearchIssues(t *testing.T) {
	srv, tracker, _ := newTestServer(t)
	ctx := context.Background()

	seedIssue(t, tracker, "default", "thermal sensor drift", "1.0")
	seedIssue(t, tracker, "default", "login page broken", "2.0")

	result, err := srv.handleSearchIssues(ctx, callToolReq("digest_search_issues",
		map[string]any{"query": "sensor"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out []*models.Issue
	resultJSON(t, result, &out)
	require.Len(t, out, 1)
	assert.Equal(t, "thermal sensor drift", out[0].Title)

	result, err = srv.handleSearchIssues(ctx, callToolReq("digest_search_issues", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError, "missing query")
}

// ---------------------------------------------------------------------------
// Tests: digest_issue_stats
// ---------------------------------------------------------------------------

func TestHandleIssueStats(t *testing.T) {
	srv, tracker, _ := newTestServer(t)
	ctx := context.Background()

	seedIssue(t, tracker, "default", "one", "1.0")
	id := seedIssue(t, tracker, "default", "two", "2.0")
	require.True(t, tracker.UpdateStatus("default", id, models.IssueStatusResolved, ""))

	result, err := srv.handleIssueStats(ctx, callToolReq("digest_issue_stats", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var stats models.Stats
	resultJSON(t, result, &stats)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Open)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 2, stats.ByPriority[models.IssuePriorityMedium])
}

// ---------------------------------------------------------------------------
// Tests: digest_list_projects / digest_create_project
// ---------------------------------------------------------------------------

func TestHandleCreateAndListProjects(t *testing.T) {
	srv, _, registry := newTestServer(t)
	ctx := context.Background()

	req := callToolReq("digest_create_project", map[string]any{
		"name":     "widget",
		"channels": "hardware, firmware",
		"keywords": "pcb,thermal",
	})
	result, err := srv.handleCreateProject(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	p, ok := registry.Get("default", "widget")
	require.True(t, ok)
	assert.Equal(t, []string{"hardware", "firmware"}, p.Channels)
	assert.Equal(t, []string{"pcb", "thermal"}, p.Keywords)
	assert.True(t, p.Active)

	result, err = srv.handleListProjects(ctx, callToolReq("digest_list_projects", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var out []struct {
		Name     string   `json:"name"`
		Channels []string `json:"channels"`
		Active   bool     `json:"active"`
	}
	resultJSON(t, result, &out)
	require.Len(t, out, 1)
	assert.Equal(t, "widget", out[0].Name)
	assert.True(t, out[0].Active)
}

func TestHandleCreateProject_Errors(t *testing.T) {
	srv, _, _ := newTestServer(t)
	ctx := context.Background()

	result, err := srv.handleCreateProject(ctx, callToolReq("digest_create_project",
		map[string]any{"channels": "C1"}))
	require.NoError(t, err)
	assert.True(t, result.IsError, "missing name")

	result, err = srv.handleCreateProject(ctx, callToolReq("digest_create_project",
		map[string]any{"name": "widget"}))
	require.NoError(t, err)
	assert.True(t, result.IsError, "missing channels")

	result, err = srv.handleCreateProject(ctx, callToolReq("digest_create_project",
		map[string]any{"name": "widget", "channels": " , "}))
	require.NoError(t, err)
	assert.True(t, result.IsError, "channels must not be empty after trimming")
}

// ---------------------------------------------------------------------------
// Tests: helpers and registration
// ---------------------------------------------------------------------------

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList("a, b"))
	assert.Equal(t, []string{"a"}, splitList("a,,  "))
	assert.Nil(t, splitList(""))
}

func TestUserResolution(t *testing.T) {
	srv, tracker, _ := newTestServer(t)
	ctx := context.Background()

	seedIssue(t, tracker, "alice", "alice only issue", "1.0")

	result, err := srv.handleListIssues(ctx, callToolReq("digest_list_issues", nil))
	require.NoError(t, err)
	var defaultIssues map[string]*models.Issue
	resultJSON(t, result, &defaultIssues)
	assert.Empty(t, defaultIssues, "default user sees nothing")

	result, err = srv.handleListIssues(ctx, callToolReq("digest_list_issues",
		map[string]any{"user": "alice"}))
	require.NoError(t, err)
	var aliceIssues map[string]*models.Issue
	resultJSON(t, result, &aliceIssues)
	assert.Len(t, aliceIssues, 1)
}

func TestMCPIntegration_ListTools(t *testing.T) {
	srv, _, _ := newTestServer(t)

	mcpSrv := srv.MCPServer()
	require.NotNil(t, mcpSrv)

	ctx := context.Background()
	reqJSON := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	respMsg := mcpSrv.HandleMessage(ctx, reqJSON)
	require.NotNil(t, respMsg)

	respBytes, err := json.Marshal(respMsg)
	require.NoError(t, err)

	var rpcResp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	err = json.Unmarshal(respBytes, &rpcResp)
	require.NoError(t, err)

	toolNames := make(map[string]bool)
	for _, tool := range rpcResp.Result.Tools {
		toolNames[tool.Name] = true
	}

	expectedTools := []string{
		"digest_detect_issues",
		"digest_list_issues",
		"digest_create_issue",
		"digest_update_issue_status",
		"digest_search_issues",
		"digest_issue_stats",
		"digest_list_projects",
		"digest_create_project",
	}
	for _, name := range expectedTools {
		assert.True(t, toolNames[name], "expected tool %q to be registered", name)
	}
}
