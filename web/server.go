// Package web serves the interactive dashboard. It embeds a self-contained
// HTML page with the three selection controls and fetches the charts, text
// and tables from a local JSON/PNG API. Every request recomputes from the
// immutable dataset, so handlers share no mutable state.
package web

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/spektr-org/campusmap/engine"
	"github.com/spektr-org/campusmap/export"
	"github.com/spektr-org/campusmap/render"
	"github.com/spektr-org/campusmap/schema"
	"github.com/spektr-org/campusmap/translator"
)

//go:embed dashboard.html
var pageFS embed.FS

// ServerConfig holds settings for the dashboard server.
type ServerConfig struct {
	View      engine.RecordView
	Schema    *schema.Config
	Estimator engine.ShareEstimator // optional national share column
	Default   engine.Selection      // zero fields fall back to the first control entry
	Addr      string
}

// Server answers dashboard requests for one dataset.
type Server struct {
	view     engine.RecordView
	schema   *schema.Config
	opts     []engine.Option
	controls engine.Controls
	parser   translator.Translator
	initial  engine.Selection
	addr     string
}

// OptionsResponse is the payload of /api/options.
type OptionsResponse struct {
	States     []string               `json:"states"`
	Attributes []schema.AttributeMeta `json:"attributes"`
	Schemes    []schema.PaletteMeta   `json:"schemes"`
	Default    engine.Selection       `json:"default"`
	Captions   engine.Captions        `json:"captions"`
}

// SummaryResponse is the payload of /api/summary.
type SummaryResponse struct {
	Selection engine.Selection   `json:"selection"`
	Frequency []engine.Frequency `json:"frequency"`
	Text      *engine.TextData   `json:"text"`
}

// NewServer prepares a Server. The Schema defaults to schema.Default().
func NewServer(cfg ServerConfig) *Server {
	sch := cfg.Schema
	if sch == nil {
		sch = schema.Default()
	}
	opts := sch.EngineOptions()
	if cfg.Estimator != nil {
		opts = append(opts, engine.WithShareEstimator(cfg.Estimator))
	}

	controls := engine.BuildControls(cfg.View, opts...)
	initial := engine.DefaultSelection(cfg.View, opts...)
	if cfg.Default.State != "" {
		initial.State = cfg.Default.State
	}
	if cfg.Default.Attribute != "" {
		initial.Attribute = cfg.Default.Attribute
	}
	if cfg.Default.Scheme != "" {
		initial.Scheme = cfg.Default.Scheme
	}

	return &Server{
		view:     cfg.View,
		schema:   sch,
		opts:     opts,
		controls: controls,
		parser:   translator.NewParser(controls, sch),
		initial:  initial,
		addr:     cfg.Addr,
	}
}

// Handler returns the dashboard routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handlePage)

	// JSON API
	mux.HandleFunc("/api/options", s.handleOptions)
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/records", s.handleRecords)

	// Rendered visuals
	mux.HandleFunc("/chart/frequency.png", s.handleChart("frequency"))
	mux.HandleFunc("/chart/heatmap.png", s.handleChart("heatmap"))
	mux.HandleFunc("/chart/scatter.png", s.handleChart("scatter"))

	// Downloads
	mux.HandleFunc("/export/frequency.csv", s.handleExportCSV)
	mux.HandleFunc("/export/dashboard.xlsx", s.handleExportXLSX)
	mux.HandleFunc("/export/schools.csv", s.handleExportSchools)

	return mux
}

// ListenAndServe starts the dashboard web server.
func (s *Server) ListenAndServe() error {
	addr := s.addr
	if addr == "" {
		addr = ":8050"
	}
	fmt.Printf("🏫 campusmap dashboard: http://localhost%s\n", addr)
	fmt.Printf("   %d schools in %d states\n", s.view.Len(), len(s.controls.States))
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data, err := pageFS.ReadFile("dashboard.html")
	if err != nil {
		http.Error(w, "dashboard page not found", 500)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	writeJSON(w, 200, OptionsResponse{
		States:     s.controls.States,
		Attributes: s.schema.Attributes,
		Schemes:    s.schema.Palettes,
		Default:    s.initial,
		Captions:   engine.BuildCaptions(s.schema.Sentinel),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, ok := s.execute(w, r)
	if !ok {
		return
	}
	writeJSON(w, 200, dash)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	dash, ok := s.execute(w, r)
	if !ok {
		return
	}
	writeJSON(w, 200, SummaryResponse{
		Selection: dash.Selection,
		Frequency: dash.Frequency,
		Text:      dash.Text,
	})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	writeJSON(w, 200, s.recordTable(r))
}

// recordTable lists every school, or only those of ?state= when given.
func (s *Server) recordTable(r *http.Request) *engine.TableData {
	keys := append([]string{engine.StateKey, engine.NameKey}, s.schema.AttributeKeys()...)
	view := s.view
	if state := r.URL.Query().Get("state"); state != "" {
		view = engine.FilterEqual(view, engine.StateKey, state)
	}
	return engine.BuildRecordTable(view, keys)
}

func (s *Server) handleChart(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dash, ok := s.execute(w, r)
		if !ok {
			return
		}

		var p *plot.Plot
		var err error
		switch kind {
		case "frequency":
			p, err = render.FrequencyChart(dash.Chart)
		case "heatmap":
			p, err = render.Heatmap(dash.Heatmap)
		default:
			p, err = render.ScatterMap(dash.Scatter)
		}
		if err != nil {
			writeJSON(w, 500, map[string]string{"error": err.Error()})
			return
		}

		// w and h are in points; either missing falls back to the default size.
		size := render.Size{
			Width:  vg.Length(queryFloat(r, "w", 0)),
			Height: vg.Length(queryFloat(r, "h", 0)),
		}
		w.Header().Set("Content-Type", "image/png")
		if err := render.WritePNG(w, p, size); err != nil {
			log.Printf("⚠️  writing %s chart: %v", kind, err)
		}
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	dash, ok := s.execute(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s_%s.csv", dash.Selection.State, dash.Selection.Attribute)))
	if err := export.WriteCSV(w, dash); err != nil {
		log.Printf("⚠️  writing CSV export: %v", err)
	}
}

func (s *Server) handleExportSchools(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	name := "schools.csv"
	if state := r.URL.Query().Get("state"); state != "" {
		name = state + "_schools.csv"
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := export.WriteTableCSV(w, s.recordTable(r)); err != nil {
		log.Printf("⚠️  writing schools CSV: %v", err)
	}
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	dash, ok := s.execute(w, r, engine.WithRecordTable(
		append([]string{engine.StateKey, engine.NameKey}, s.schema.AttributeKeys()...)))
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s_%s.xlsx", dash.Selection.State, dash.Selection.Attribute)))
	if err := export.WriteXLSX(w, dash); err != nil {
		log.Printf("⚠️  writing XLSX export: %v", err)
	}
}

// execute resolves the request's selection and runs the engine. On failure
// it has already written the error response.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, extra ...engine.Option) (*engine.Dashboard, bool) {
	if !allowGet(w, r) {
		return nil, false
	}
	sel, err := s.selection(r)
	if err != nil {
		writeJSON(w, 400, map[string]string{"error": err.Error()})
		return nil, false
	}
	// clipped: handlers run concurrently
	opts := append(s.opts[:len(s.opts):len(s.opts)], extra...)
	dash, err := engine.Execute(sel, s.view, opts...)
	if err != nil {
		code := 500
		if errors.Is(err, engine.ErrUnknownAttribute) || errors.Is(err, engine.ErrUnknownScheme) {
			code = 400
		}
		writeJSON(w, code, map[string]string{"error": err.Error()})
		return nil, false
	}
	return dash, true
}

// selection reads state/attribute/scheme query parameters on top of the
// initial selection, then applies a free-form q parameter if present.
func (s *Server) selection(r *http.Request) (engine.Selection, error) {
	q := r.URL.Query()
	sel := s.initial
	if v := q.Get("state"); v != "" {
		sel.State = v
	}
	if v := q.Get("attribute"); v != "" {
		sel.Attribute = v
	}
	if v := q.Get("scheme"); v != "" {
		sel.Scheme = v
	}
	if text := q.Get("q"); text != "" {
		res, err := s.parser.Translate(text, sel)
		if err != nil {
			return sel, err
		}
		sel = res.Selection
	}
	return sel, nil
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeJSON(w, 405, map[string]string{"error": "method not allowed"})
		return false
	}
	return true
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	if err != nil || v <= 0 || v > 4000 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
