// ABOUTME: MCP resource implementations for compliance data.
// ABOUTME: Provides caretrack://dashboard and caretrack://pending resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/harperreed/caretrack/internal/analytics"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	dashboardURI = "caretrack://dashboard"
	pendingURI   = "caretrack://pending"
)

func (s *Server) registerResources() {
	// caretrack://dashboard - unfiltered dashboard with benchmark
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         dashboardURI,
		Name:        "Compliance Dashboard",
		Description: "Per-metric averages, overall compliance, and benchmark across all hospitals",
		MIMEType:    "application/json",
	}, s.handleDashboardResource)

	// caretrack://pending - sessions waiting to sync
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         pendingURI,
		Name:        "Pending Sessions",
		Description: "Sessions saved locally that have not reached the remote store",
		MIMEType:    "application/json",
	}, s.handlePendingResource)
}

// Resource handlers

func (s *Server) handleDashboardResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	d := s.dashboard(ctx, analytics.Filter{Hospital: analytics.AllHospitals})
	return jsonResource(dashboardURI, map[string]any{
		"generated_at": s.now().Format("2006-01-02T15:04:05Z07:00"),
		"dashboard":    d,
	})
}

func (s *Server) handlePendingResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(pendingURI, s.queueStatus())
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
