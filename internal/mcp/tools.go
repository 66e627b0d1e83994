// ABOUTME: MCP tool implementations for compliance sessions.
// ABOUTME: Provides logging, listing, dashboards, trends, leaderboards, and sync.
package mcp

import (
	"context"
	"fmt"
	"sort"

	"github.com/harperreed/caretrack/internal/analytics"
	"github.com/harperreed/caretrack/internal/models"
	"github.com/harperreed/caretrack/internal/queue"
	"github.com/harperreed/caretrack/internal/sync"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_session",
		Description: "Record a wound-care compliance session; queued locally when the store is unreachable",
	}, s.handleLogSession)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List recent sessions, newest first, optionally filtered by hospital and date range",
	}, s.handleListSessions)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "dashboard",
		Description: "Per-metric compliance averages with tiers and the cross-hospital benchmark",
	}, s.handleDashboard)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "trends",
		Description: "Month-over-month compliance comparison",
	}, s.handleTrends)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "leaderboard",
		Description: "Rank hospitals or locations by overall compliance",
	}, s.handleLeaderboard)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "sync_now",
		Description: "Push queued sessions to the remote store",
	}, s.handleSyncNow)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "queue_status",
		Description: "Show pending sessions waiting to sync",
	}, s.handleQueueStatus)
}

// Tool input/output types

type ratioInput struct {
	Metric string `json:"metric" jsonschema:"Metric id (matt_applied, wedges_applied, turning_criteria, matt_proper, wedges_in_room, wedge_offload, air_supply)"`
	Num    int    `json:"num" jsonschema:"Patients meeting the criterion"`
	Den    int    `json:"den" jsonschema:"Qualifying patients"`
}

type logSessionInput struct {
	Date           string       `json:"date" jsonschema:"Session date (YYYY-MM-DD)"`
	Hospital       string       `json:"hospital,omitempty" jsonschema:"Hospital name"`
	Location       string       `json:"location,omitempty" jsonschema:"Unit or location within the hospital"`
	ProtocolForUse string       `json:"protocol_for_use,omitempty" jsonschema:"Protocol in use"`
	Notes          string       `json:"notes,omitempty" jsonschema:"Optional notes"`
	Metrics        []ratioInput `json:"metrics,omitempty" jsonschema:"Metric ratios recorded this session"`
}

type sessionOutput struct {
	ID      string `json:"id"`
	Pending bool   `json:"pending"`
	Message string `json:"message"`
}

type filterInput struct {
	Hospital string `json:"hospital,omitempty" jsonschema:"Hospital name, or All"`
	From     string `json:"from,omitempty" jsonschema:"First date included (YYYY-MM-DD)"`
	To       string `json:"to,omitempty" jsonschema:"Last date included (YYYY-MM-DD)"`
}

func (f filterInput) filter() analytics.Filter {
	return analytics.Filter{Hospital: f.Hospital, From: f.From, To: f.To}
}

type listSessionsInput struct {
	Hospital string `json:"hospital,omitempty" jsonschema:"Hospital name, or All"`
	From     string `json:"from,omitempty" jsonschema:"First date included (YYYY-MM-DD)"`
	To       string `json:"to,omitempty" jsonschema:"Last date included (YYYY-MM-DD)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type listSessionsOutput struct {
	Sessions []*models.Session `json:"sessions"`
	Total    int               `json:"total"`
	Pending  int               `json:"pending"`
}

type trendsInput struct {
	Hospital string `json:"hospital,omitempty" jsonschema:"Hospital name, or All"`
}

type trendsOutput struct {
	Comparison analytics.MonthComparison `json:"comparison"`
	Series     []analytics.Point         `json:"series"`
}

type leaderboardInput struct {
	From string `json:"from,omitempty" jsonschema:"First date included (YYYY-MM-DD)"`
	To   string `json:"to,omitempty" jsonschema:"Last date included (YYYY-MM-DD)"`
	By   string `json:"by,omitempty" jsonschema:"Group by hospital (default) or location"`
}

type syncOutput struct {
	Result  sync.Result `json:"result"`
	Message string      `json:"message"`
}

type queueStatusOutput struct {
	Pending  int           `json:"pending"`
	Degraded bool          `json:"degraded"`
	Online   bool          `json:"online"`
	Entries  []queue.Entry `json:"entries"`
}

// Tool handlers

func (s *Server) handleLogSession(ctx context.Context, req *mcp.CallToolRequest, input logSessionInput) (*mcp.CallToolResult, sessionOutput, error) {
	sess := models.NewSession(input.Date).
		WithHospital(input.Hospital).
		WithLocation(input.Location).
		WithProtocol(input.ProtocolForUse).
		WithNotes(input.Notes)
	for _, m := range input.Metrics {
		if !models.IsValidMetricID(m.Metric) {
			return nil, sessionOutput{}, fmt.Errorf("unknown metric: %s", m.Metric)
		}
		sess.WithRatio(models.MetricID(m.Metric), m.Num, m.Den)
	}

	res, err := s.tracker.Submit(ctx, sess)
	if err != nil {
		return nil, sessionOutput{}, fmt.Errorf("failed to log session: %w", err)
	}

	out := sessionOutput{ID: res.Session.ID, Pending: res.Pending}
	if res.Pending {
		out.Message = fmt.Sprintf("Queued session for %s; it will sync when the store is reachable", sess.Date)
	} else {
		out.Message = fmt.Sprintf("Logged session for %s (ID: %s)", sess.Date, shortID(res.Session.ID))
	}
	return nil, out, nil
}

// Sessions and queue entries carry timestamps, so these two tools return
// untyped output and skip the inferred output schema.

func (s *Server) handleListSessions(ctx context.Context, req *mcp.CallToolRequest, input listSessionsInput) (*mcp.CallToolResult, any, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	s.refresh(ctx)

	f := analytics.Filter{Hospital: input.Hospital, From: input.From, To: input.To}
	sessions := analytics.Apply(s.tracker.Sessions(), f)
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Date != sessions[j].Date {
			return sessions[i].Date > sessions[j].Date
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	out := listSessionsOutput{Total: len(sessions)}
	for _, sess := range sessions {
		if sess.IsPending() {
			out.Pending++
		}
	}
	if len(sessions) > input.Limit {
		sessions = sessions[:input.Limit]
	}
	out.Sessions = sessions
	return nil, out, nil
}

func (s *Server) handleDashboard(ctx context.Context, req *mcp.CallToolRequest, input filterInput) (*mcp.CallToolResult, analytics.Dashboard, error) {
	return nil, s.dashboard(ctx, input.filter()), nil
}

func (s *Server) handleTrends(ctx context.Context, req *mcp.CallToolRequest, input trendsInput) (*mcp.CallToolResult, trendsOutput, error) {
	s.refresh(ctx)
	sessions := analytics.Apply(s.tracker.Sessions(), analytics.Filter{Hospital: input.Hospital})
	return nil, trendsOutput{
		Comparison: analytics.MonthOverMonth(sessions, s.now()),
		Series:     analytics.Series(sessions),
	}, nil
}

func (s *Server) handleLeaderboard(ctx context.Context, req *mcp.CallToolRequest, input leaderboardInput) (*mcp.CallToolResult, analytics.Board, error) {
	by := analytics.GroupBy(input.By)
	switch by {
	case "", analytics.ByHospital, analytics.ByLocation:
	default:
		return nil, analytics.Board{}, fmt.Errorf("unknown grouping: %s (use hospital or location)", input.By)
	}
	s.refresh(ctx)
	sessions := analytics.Apply(s.tracker.Sessions(), analytics.Filter{From: input.From, To: input.To})
	return nil, analytics.Leaderboard(sessions, by), nil
}

func (s *Server) handleSyncNow(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, syncOutput, error) {
	res, err := s.tracker.Sync(ctx)
	if err != nil {
		return nil, syncOutput{}, fmt.Errorf("sync failed: %w", err)
	}
	return nil, syncOutput{Result: res, Message: res.Message()}, nil
}

func (s *Server) handleQueueStatus(ctx context.Context, req *mcp.CallToolRequest, input struct{}) (*mcp.CallToolResult, any, error) {
	return nil, s.queueStatus(), nil
}

func (s *Server) queueStatus() queueStatusOutput {
	entries := s.tracker.PendingEntries()
	if entries == nil {
		entries = []queue.Entry{}
	}
	return queueStatusOutput{
		Pending:  len(entries),
		Degraded: s.tracker.Degraded(),
		Online:   s.tracker.Online(),
		Entries:  entries,
	}
}

// dashboard builds the dashboard view, leaving out the benchmark when
// the population cannot be fetched.
func (s *Server) dashboard(ctx context.Context, f analytics.Filter) analytics.Dashboard {
	s.refresh(ctx)
	var population []*models.Session
	if s.tracker.Online() {
		p, err := s.tracker.BenchmarkPopulation(ctx)
		if err != nil {
			s.logger.Warn("benchmark unavailable", zap.Error(err))
		} else {
			population = p
		}
	}
	return analytics.BuildDashboard(s.tracker.Sessions(), f, population)
}

// refresh reloads the live set. While offline a populated set is kept as is.
func (s *Server) refresh(ctx context.Context) {
	if !s.tracker.Online() && len(s.tracker.Sessions()) > 0 {
		return
	}
	if err := s.tracker.Load(ctx); err != nil {
		s.logger.Debug("load sessions", zap.Error(err))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
