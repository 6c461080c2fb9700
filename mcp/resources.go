package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// --- Resources ---

func registerAttributesResource(s *server.MCPServer, d *deps) {
	resource := mcp.NewResource(
		"campusmap://attributes",
		"Statistical Attributes",
		mcp.WithResourceDescription("Every selectable statistical attribute with its display name, definition and source."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		payload := map[string]interface{}{
			"attributes": d.schema.Attributes,
			"sentinel":   d.schema.Sentinel,
			"count":      len(d.schema.Attributes),
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}

func registerSchemesResource(s *server.MCPServer, d *deps) {
	resource := mcp.NewResource(
		"campusmap://schemes",
		"Color Schemes",
		mcp.WithResourceDescription("The color scheme lookup table: heatmap ramp, map marker color, tooltip and bar colors per scheme."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		payload := map[string]interface{}{
			"schemes": d.schema.Palettes,
			"order":   d.schema.SchemeNames(),
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}

func registerStatsResource(s *server.MCPServer, d *deps) {
	resource := mcp.NewResource(
		"campusmap://stats",
		"Snapshot Statistics",
		mcp.WithResourceDescription("School, state and code counts of the SQLite snapshot, with its source and import time."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		d.storeMu.Lock()
		defer d.storeMu.Unlock()

		stats, err := d.store.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading snapshot stats: %w", err)
		}
		data, _ := json.MarshalIndent(stats, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}
