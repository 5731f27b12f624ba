// Package mcp exposes issue detection, tracking, and project scoping
// as MCP tools over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"digest/internal/detect"
	"digest/internal/issues"
	"digest/internal/models"
	"digest/internal/projects"
)

// Server wraps the digest data layer and exposes it as MCP tools.
type Server struct {
	tracker     *issues.Tracker
	registry    *projects.Registry
	defaultUser string
}

// NewServer creates the MCP server wrapper. defaultUser is used when a
// tool call does not name a user.
func NewServer(tracker *issues.Tracker, registry *projects.Registry, defaultUser string) *Server {
	return &Server{
		tracker:     tracker,
		registry:    registry,
		defaultUser: defaultUser,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("digest", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.detectIssuesTool())
	srv.AddTool(s.listIssuesTool())
	srv.AddTool(s.createIssueTool())
	srv.AddTool(s.updateIssueStatusTool())
	srv.AddTool(s.searchIssuesTool())
	srv.AddTool(s.issueStatsTool())
	srv.AddTool(s.listProjectsTool())
	srv.AddTool(s.createProjectTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// user resolves the acting user for a request.
func (s *Server) user(request mcp.CallToolRequest) string {
	if u := request.GetString("user", ""); u != "" {
		return u
	}
	return s.defaultUser
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// digest_detect_issues
func (s *Server) detectIssuesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("digest_detect_issues",
		mcp.WithDescription("Scan chat messages for technical issues. Accepts a JSON array of {text, user, channel, ts} objects and returns detected candidate issues with type tags, priority, and a generated title. Set track=true to persist them."),
		mcp.WithString("messages", mcp.Required(), mcp.Description("JSON array of message objects: [{\"text\":..., \"user\":..., \"channel\":..., \"ts\":...}]")),
		mcp.WithBoolean("track", mcp.Description("Persist detected issues as tracked records (default false)")),
		mcp.WithString("user", mcp.Description("Acting user id (defaults to the configured user)")),
	)
	return tool, s.handleDetectIssues
}

func (s *Server) handleDetectIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("messages")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: messages"), nil
	}

	var msgs []models.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid messages JSON: %v", err)), nil
	}

	candidates := detect.Detect(msgs)

	type candidateOut struct {
		models.CandidateIssue
		ID string `json:"id,omitempty"`
	}
	out := make([]candidateOut, len(candidates))
	for i, c := range candidates {
		out[i] = candidateOut{CandidateIssue: c}
	}

	if request.GetBool("track", false) {
		user := s.user(request)
		for i, c := range candidates {
			out[i].ID = s.tracker.Create(user, c)
		}
	}

	return jsonResult(out)
}

// digest_list_issues
func (s *Server) listIssuesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("digest_list_issues",
		mcp.WithDescription("List tracked issues for a user, optionally filtered by status (open, investigating, resolved, closed)."),
		mcp.WithString("status", mcp.Description("Filter by status")),
		mcp.WithString("user", mcp.Description("Acting user id (defaults to the configured user)")),
	)
	return tool, s.handleListIssues
}

func (s *Server) handleListIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var status models.IssueStatus
	if raw := request.GetString("status", ""); raw != "" {
		parsed, ok := models.ParseStatus(raw)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown status: %s", raw)), nil
		}
		status = parsed
	}

	return jsonResult(s.tracker.List(s.user(request), status))
}

// digest_create_issue
func (s *Server) createIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("digest_create_issue",
		mcp.WithDescription("Track a single message as an issue. Type tags, priority, and title are derived from the text. Returns the issue id."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Original message text")),
		mcp.WithString("channel", mcp.Description("Channel the message was posted in")),
		mcp.WithString("reporter", mcp.Description("User who posted the message")),
		mcp.WithString("ts", mcp.Description("Platform message timestamp")),
		mcp.WithString("user", mcp.Description("Acting user id (defaults to the configured user)")),
	)
	return tool, s.handleCreateIssue
}

func (s *Server) handleCreateIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	ts := request.GetString("ts", "")
	types := detect.Classify(text)
	candidate := models.CandidateIssue{
		Title:        detect.Title(text, detect.DefaultTitleLength),
		OriginalText: text,
		Channel:      request.GetString("channel", ""),
		Reporter:     request.GetString("reporter", ""),
		Timestamp:    ts,
		MessageTS:    ts,
		Types:        types,
		Priority:     detect.Priority(text),
		Tags:         types,
	}

	id := s.tracker.Create(s.user(request), candidate)
	return jsonResult(map[string]string{"id": id})
}

// digest_update_issue_status
func (s *Server) updateIssueStatusTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("digest_update_issue_status",
		mcp.WithDescription("Move a tracked issue to a new status. Every transition is appended to the issue's status history."),
		mcp.WithString("issue_id", mcp.Required(), mcp.Description("Issue id (8-char fingerprint)")),
		mcp.WithString("status", mcp.Required(), mcp.Description("New status: open, investigating, resolved, closed")),
		mcp.WithString("updated_by", mcp.Description("User making the change")),
		mcp.WithString("user", mcp.Description("Acting user id (defaults to the configured user)")),
	)
	return tool, s.handleUpdateIssueStatus
}

func (s *Server) handleUpdateIssueStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("issue_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: issue_id"), nil
	}
	raw, err := request.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: status"), nil
	}
	status, ok := models.ParseStatus(raw)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown status: %s", raw)), nil
	}

	user := s.user(request)
	if !s.tracker.UpdateStatus(user, id, status, request.GetString("updated_by", "")) {
		return mcp.NewToolResultError(fmt.Sprintf("issue not found: %s", id)), nil
	}

	issue, _ := s.tracker.Get(user, id)
	return jsonResult(issue)
}

// digest_search_issues
func (s *Server) searchIssuesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("digest_search_issues",
		mcp.WithDescription("Search tracked issues by text. Matches title, description, and original message text case-insensitively; results are ordered most recently updated first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithString("user", mcp.Description("Acting user id (defaults to the configured user)")),
	)
	return tool, s.handleSearchIssues
}

func (s *Server) handleSearchIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	return jsonResult(s.tracker.Search(s.user(request), query))
}

// digest_issue_stats
func (s *Server) issueStatsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("digest_issue_stats",
		mcp.WithDescription("Aggregate issue statistics: totals by status and priority plus recent activity (issues updated in the last 24 hours)."),
		mcp.WithString("user", mcp.Description("Acting user id (defaults to the configured user)")),
	)
	return tool, s.handleIssueStats
}

func (s *Server) handleIssueStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.tracker.Statistics(s.user(request)))
}

// digest_list_projects
func (s *Server) listProjectsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("digest_list_projects",
		mcp.WithDescription("List a user's project configurations: name, channels, keywords, and active flag."),
		mcp.WithString("user", mcp.Description("Acting user id (defaults to the configured user)")),
	)
	return tool, s.handleListProjects
}

func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list := s.registry.List(s.user(request))

	type projectOut struct {
		Name     string   `json:"name"`
		Channels []string `json:"channels"`
		Keywords []string `json:"keywords"`
		Active   bool     `json:"active"`
	}
	out := make([]projectOut, 0, len(list))
	for name, p := range list {
		out = append(out, projectOut{Name: name, Channels: p.Channels, Keywords: p.Keywords, Active: p.Active})
	}
	return jsonResult(out)
}

// digest_create_project
func (s *Server) createProjectTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("digest_create_project",
		mcp.WithDescription("Create or replace a project configuration scoping digests to a set of channels and optional keywords."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Project name (unique per user; replaces an existing project of the same name)")),
		mcp.WithString("channels", mcp.Required(), mcp.Description("Comma-separated channel names")),
		mcp.WithString("keywords", mcp.Description("Comma-separated keywords (empty matches everything)")),
		mcp.WithString("user", mcp.Description("Acting user id (defaults to the configured user)")),
	)
	return tool, s.handleCreateProject
}

func (s *Server) handleCreateProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}
	rawChannels, err := request.RequireString("channels")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: channels"), nil
	}

	channels := splitList(rawChannels)
	if len(channels) == 0 {
		return mcp.NewToolResultError("channels must name at least one channel"), nil
	}

	user := s.user(request)
	s.registry.Create(user, name, channels, splitList(request.GetString("keywords", "")))

	p, _ := s.registry.Get(user, name)
	return jsonResult(p)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// splitList parses a comma-separated argument, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
