// Package mcp provides a Model Context Protocol server for campusmap.
//
// It exposes the selection controls, the frequency summarizer, the heatmap
// layer and the full dashboard as MCP tools, and the attribute definitions,
// color schemes and snapshot statistics as MCP resources. Served over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spektr-org/campusmap/engine"
	"github.com/spektr-org/campusmap/schema"
	"github.com/spektr-org/campusmap/store"
	"github.com/spektr-org/campusmap/translator"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	View      engine.RecordView
	Schema    *schema.Config
	Store     store.Store           // optional; summaries run as SQL when set
	Estimator engine.ShareEstimator // optional national share column
	Version   string
}

// DefaultHeatmapLimit caps the points returned by campusmap_heatmap.
const DefaultHeatmapLimit = 500

// ErrSnapshotMismatch is returned when an attached snapshot does not hold
// the dataset the server was given.
var ErrSnapshotMismatch = errors.New("snapshot does not match the loaded dataset")

// deps is what every tool handler reads. All of it except storeMu is
// immutable after NewServer returns.
type deps struct {
	view     engine.RecordView
	schema   *schema.Config
	store    store.Store
	est      engine.ShareEstimator
	opts     []engine.Option
	controls engine.Controls
	parser   translator.Translator

	// storeMu serializes calls into store; mcp-go dispatches handlers
	// concurrently.
	storeMu sync.Mutex
}

// NewServer creates a configured MCP server with all campusmap tools and resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	sch := cfg.Schema
	if sch == nil {
		sch = schema.Default()
	}
	opts := sch.EngineOptions()
	if cfg.Estimator != nil {
		opts = append(opts, engine.WithShareEstimator(cfg.Estimator))
	}
	st := cfg.Store
	if st != nil {
		if err := CheckSnapshot(context.Background(), st, cfg.View); err != nil {
			log.Printf("⚠️  %v; summaries use the loaded dataset", err)
			st = nil
		}
	}

	controls := engine.BuildControls(cfg.View, opts...)
	d := &deps{
		view:     cfg.View,
		schema:   sch,
		store:    st,
		est:      cfg.Estimator,
		opts:     opts,
		controls: controls,
		parser:   translator.NewParser(controls, sch),
	}

	s := server.NewMCPServer(
		"campusmap",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	// Register tools
	registerStatesTool(s, d)
	registerSummarizeTool(s, d)
	registerDefineTool(s, d)
	registerHeatmapTool(s, d)
	registerDashboardTool(s, d)

	// Register resources
	registerAttributesResource(s, d)
	registerSchemesResource(s, d)
	if d.store != nil {
		registerStatsResource(s, d)
	}

	return s
}

// CheckSnapshot verifies that st holds the same schools as view. An empty
// snapshot never matches.
func CheckSnapshot(ctx context.Context, st store.Store, view engine.RecordView) error {
	stats, err := st.Stats(ctx)
	if err != nil {
		return fmt.Errorf("reading snapshot stats: %w", err)
	}
	if stats.SchoolCount == 0 {
		return fmt.Errorf("%w: snapshot is empty", ErrSnapshotMismatch)
	}
	if int(stats.SchoolCount) != view.Len() {
		return fmt.Errorf("%w: snapshot has %d schools, dataset has %d",
			ErrSnapshotMismatch, stats.SchoolCount, view.Len())
	}
	return nil
}

// ServeStdio runs the server on stdin/stdout until the client disconnects.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// --- Tools ---

func registerStatesTool(s *server.MCPServer, d *deps) {
	tool := mcp.NewTool("campusmap_states",
		mcp.WithDescription("List the values each dashboard control accepts: states present in the dataset (ascending), statistical attributes, and color schemes."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, _ := json.MarshalIndent(d.controls, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

type summarizeResult struct {
	State     string             `json:"state"`
	Attribute string             `json:"attribute"`
	Total     int                `json:"total"`
	Frequency []engine.Frequency `json:"frequency"`
	Table     *engine.TableData  `json:"table"`
	Text      string             `json:"text"`
	Backend   string             `json:"backend"`
}

func registerSummarizeTool(s *server.MCPServer, d *deps) {
	tool := mcp.NewTool("campusmap_summarize",
		mcp.WithDescription("Count how many schools in one state carry each code of a statistical attribute. Codes come back in ascending string order; the 'N' sentinel means not classified."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("state",
			mcp.Required(),
			mcp.Description("Two-letter state or territory code, e.g. 'MA' (exact match)"),
		),
		mcp.WithString("attribute",
			mcp.Required(),
			mcp.Description("Statistical attribute, e.g. LOCALE, CBSA, CSA, NECTA, CD, SLDL, SLDU"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		state, err := req.RequireString("state")
		if err != nil {
			return mcp.NewToolResultError("state is required"), nil
		}
		attribute, err := req.RequireString("attribute")
		if err != nil {
			return mcp.NewToolResultError("attribute is required"), nil
		}
		attribute = d.canonicalAttribute(attribute)
		if _, ok := d.schema.Attribute(attribute); !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown attribute %q (choose from %s)",
				attribute, strings.Join(d.controls.Attributes, ", "))), nil
		}

		var freqs []engine.Frequency
		backend := "memory"
		if d.store != nil {
			d.storeMu.Lock()
			freqs, err = d.store.Summarize(ctx, state, attribute)
			d.storeMu.Unlock()
			backend = "sqlite"
		} else {
			freqs, err = engine.Summarize(d.view, state, attribute)
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("summarize error: %v", err)), nil
		}

		sel := engine.Selection{State: state, Attribute: attribute}
		out := summarizeResult{
			State:     state,
			Attribute: attribute,
			Total:     engine.TotalCount(freqs),
			Frequency: freqs,
			Table:     engine.BuildFrequencyTable(sel, freqs, d.est),
			Text:      engine.BuildText(sel, freqs, d.schema.Sentinel).Value,
			Backend:   backend,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerDefineTool(s *server.MCPServer, d *deps) {
	tool := mcp.NewTool("campusmap_define",
		mcp.WithDescription("Describe a statistical attribute: display name, definition and source link."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("attribute",
			mcp.Required(),
			mcp.Description("Attribute key or display name"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		attribute, err := req.RequireString("attribute")
		if err != nil {
			return mcp.NewToolResultError("attribute is required"), nil
		}
		meta, ok := d.schema.Attribute(d.canonicalAttribute(attribute))
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown attribute %q", attribute)), nil
		}
		data, _ := json.MarshalIndent(meta, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

type heatmapResult struct {
	Attribute  string           `json:"attribute"`
	Scheme     string           `json:"scheme"`
	Total      int              `json:"total"`
	Returned   int              `json:"returned"`
	Weight     float64          `json:"weight"`
	Threshold  float64          `json:"threshold"`
	ColorRange []string         `json:"colorRange"`
	View       engine.ViewState `json:"viewState"`
	Points     []engine.LonLat  `json:"points"`
}

func registerHeatmapTool(s *server.MCPServer, d *deps) {
	tool := mcp.NewTool("campusmap_heatmap",
		mcp.WithDescription("Build the nationwide density layer for an attribute: positions of every school whose code is not the 'N' sentinel, with the color ramp of the chosen scheme."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("attribute",
			mcp.Required(),
			mcp.Description("Statistical attribute"),
		),
		mcp.WithString("scheme",
			mcp.Description("Color scheme (default: first scheme)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of points returned (default: 500, 0 = counts only)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		attribute, err := req.RequireString("attribute")
		if err != nil {
			return mcp.NewToolResultError("attribute is required"), nil
		}
		attribute = d.canonicalAttribute(attribute)
		var scheme string
		if len(d.controls.Schemes) > 0 {
			scheme = d.controls.Schemes[0]
		}
		if v, err := req.RequireString("scheme"); err == nil && v != "" {
			scheme = v
		}
		limit := DefaultHeatmapLimit
		if v, err := req.RequireFloat("limit"); err == nil && v >= 0 {
			limit = int(v)
		}

		sel := engine.Selection{Attribute: attribute, Scheme: scheme}
		if err := engine.ValidateSelection(sel, d.opts...); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		palette, _ := engine.PaletteFor(scheme, d.opts...)
		layer := engine.BuildHeatmap(d.view, attribute, palette, d.opts...)

		out := heatmapResult{
			Attribute: attribute,
			Scheme:    scheme,
			Total:     len(layer.Points),
			Weight:    layer.Weight,
			Threshold: layer.Threshold,
			View:      layer.View,
			Points:    layer.Points,
		}
		for _, c := range layer.ColorRange {
			out.ColorRange = append(out.ColorRange, c.Hex())
		}
		if len(out.Points) > limit {
			out.Points = out.Points[:limit]
		}
		out.Returned = len(out.Points)

		data, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

type dashboardResult struct {
	Selection      engine.Selection    `json:"selection"`
	Summary        string              `json:"summary"`
	Text           *engine.TextData    `json:"text"`
	Frequency      []engine.Frequency  `json:"frequency"`
	FrequencyTable *engine.TableData   `json:"frequencyTable"`
	Chart          *engine.ChartConfig `json:"chart"`
	HeatmapPoints  int                 `json:"heatmapPoints"`
	MapPoints      int                 `json:"mapPoints"`
	Captions       engine.Captions     `json:"captions"`
}

func registerDashboardTool(s *server.MCPServer, d *deps) {
	tool := mcp.NewTool("campusmap_dashboard",
		mcp.WithDescription("Compute the whole dashboard for a selection. Pass explicit fields, or a free-form query like 'ma necta blue' or 'state=NY attribute=CBSA'. Missing fields default to the first value of each control."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("state", mcp.Description("State or territory code")),
		mcp.WithString("attribute", mcp.Description("Statistical attribute")),
		mcp.WithString("scheme", mcp.Description("Color scheme: Red, Green, Blue or Purple")),
		mcp.WithString("query", mcp.Description("Free-form selection applied on top of the explicit fields")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sel := engine.DefaultSelection(d.view, d.opts...)
		if v, err := req.RequireString("state"); err == nil && v != "" {
			sel.State = v
		}
		if v, err := req.RequireString("attribute"); err == nil && v != "" {
			sel.Attribute = d.canonicalAttribute(v)
		}
		if v, err := req.RequireString("scheme"); err == nil && v != "" {
			sel.Scheme = v
		}
		if q, err := req.RequireString("query"); err == nil && strings.TrimSpace(q) != "" {
			res, err := d.parser.Translate(q, sel)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("query not understood: %v", err)), nil
			}
			sel = res.Selection
		}

		dash, err := engine.Execute(sel, d.view, d.opts...)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("dashboard error: %v", err)), nil
		}

		out := dashboardResult{
			Selection:      dash.Selection,
			Summary:        translator.Describe(dash.Selection),
			Text:           dash.Text,
			Frequency:      dash.Frequency,
			FrequencyTable: dash.FrequencyTable,
			Chart:          dash.Chart,
			HeatmapPoints:  len(dash.Heatmap.Points),
			MapPoints:      len(dash.Scatter.Points),
			Captions:       dash.Captions,
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// canonicalAttribute maps a display name or any-case key to its key.
// Unknown input is returned unchanged.
func (d *deps) canonicalAttribute(s string) string {
	for _, a := range d.schema.Attributes {
		if strings.EqualFold(a.Key, s) || strings.EqualFold(a.DisplayName, s) {
			return a.Key
		}
	}
	return s
}
