package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"gonum.org/v1/plot/vg"

	"github.com/spektr-org/campusmap/config"
	"github.com/spektr-org/campusmap/engine"
	"github.com/spektr-org/campusmap/export"
	"github.com/spektr-org/campusmap/helpers"
	"github.com/spektr-org/campusmap/mcp"
	"github.com/spektr-org/campusmap/profile"
	"github.com/spektr-org/campusmap/render"
	"github.com/spektr-org/campusmap/schema"
	"github.com/spektr-org/campusmap/store"
	"github.com/spektr-org/campusmap/web"
)

// ============================================================================
// CAMPUSMAP CLI — Postsecondary school locations dashboard
// ============================================================================

const version = "0.3.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "serve":
		runServe(args)
	case "summarize":
		runSummarize(args)
	case "render":
		runRender(args)
	case "console":
		runConsole(args)
	case "mcp":
		runMCP(args)
	case "import":
		runImport(args)
	case "states":
		runStates(args)
	case "config":
		runConfig(args)
	case "version", "--version", "-v":
		fmt.Printf("campusmap %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `campusmap: Postsecondary school locations dashboard

Usage:
  campusmap <command> [flags]

Commands:
  serve       Start the interactive dashboard (default :8050)
  summarize   Count attribute codes for one state
  render      Write the three visuals as PNG files
  console     Interactive selection prompt
  mcp         Serve the dashboard as MCP tools over stdio
  import      Load the CSV into a SQLite snapshot
  states      List the states in the dataset
  config      Show resolved settings and where each came from
  version     Print version

Common flags:
  --config PATH    Settings file (default ~/.campusmap/config.yaml)
  --data PATH      Dataset: .csv file or .db snapshot
  --schema PATH    Dataset schema YAML (default: built in)

Environment:
  CAMPUSMAP_DATA, CAMPUSMAP_SCHEMA, CAMPUSMAP_DB, CAMPUSMAP_ADDR,
  CAMPUSMAP_STATE, CAMPUSMAP_ATTRIBUTE, CAMPUSMAP_SCHEME

Formats (summarize):
  json      Full JSON output (default)
  pretty    Pretty-printed JSON
  text      Human-readable summary only
  csv       Frequency table as CSV (ready for Sheets/Excel)
  xlsx      Dashboard workbook (requires --out)

Examples:
  campusmap serve --data schools.csv --addr :8080
  campusmap summarize --state MA --attribute NECTA --format text
  campusmap summarize --state CA --attribute CBSA --format csv --out ca_cbsa.csv
  campusmap import --data schools.csv --db ~/.campusmap/campusmap.db
  campusmap render --state NY --attribute LOCALE --scheme Blue --dir out/
`)
}

// ============================================================================
// SHARED SETUP
// ============================================================================

// commonFlags are accepted by every data-reading command.
type commonFlags struct {
	configPath *string
	data       *string
	schema     *string
	db         *string
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configPath: fs.String("config", "", "Settings file"),
		data:       fs.String("data", "", "Dataset: .csv file or .db snapshot"),
		schema:     fs.String("schema", "", "Dataset schema YAML"),
		db:         fs.String("db", "", "SQLite snapshot path"),
	}
}

// selectionFlags are accepted by commands that compute a dashboard.
type selectionFlags struct {
	state     *string
	attribute *string
	scheme    *string
}

func addSelectionFlags(fs *flag.FlagSet) selectionFlags {
	return selectionFlags{
		state:     fs.String("state", "", "State or territory code, e.g. MA"),
		attribute: fs.String("attribute", "", "Statistical attribute, e.g. NECTA"),
		scheme:    fs.String("scheme", "", "Color scheme: Red, Green, Blue, Purple"),
	}
}

func resolve(c commonFlags, s *selectionFlags, addr string) config.ResolvedConfig {
	opts := config.ResolveOptions{
		ConfigPath: *c.configPath,
		CLIData:    *c.data,
		CLISchema:  *c.schema,
		CLIDBPath:  *c.db,
		CLIAddr:    addr,
	}
	if s != nil {
		opts.CLIState = *s.state
		opts.CLIAttribute = *s.attribute
		opts.CLIScheme = *s.scheme
	}
	cfg, err := config.ResolveConfig(opts)
	if err != nil {
		fatalf("Failed to resolve settings: %v", err)
	}
	return cfg
}

func loadSchema(cfg config.ResolvedConfig) *schema.Config {
	if cfg.SchemaPath.Value == "" {
		return schema.Default()
	}
	sch, err := schema.Load(cfg.SchemaPath.Value)
	if err != nil {
		fatalf("%v", err)
	}
	log.Printf("📋 Loaded schema: %s (%d attributes, %d schemes)",
		sch.Name, len(sch.Attributes), len(sch.Palettes))
	return sch
}

func loadView(ctx context.Context, cfg config.ResolvedConfig, sch *schema.Config) engine.RecordView {
	view, err := helpers.Load(ctx, cfg.DataPath.Value, *sch)
	if err != nil {
		fatalf("Failed to load dataset: %v", err)
	}
	log.Printf("📊 Loaded %d schools from %s", view.Len(), cfg.DataPath.Value)
	return view
}

// initialSelection fills unset fields from the first entry of each control.
func initialSelection(cfg config.ResolvedConfig, view engine.RecordView, opts []engine.Option) engine.Selection {
	sel := engine.DefaultSelection(view, opts...)
	if cfg.State.Value != "" {
		sel.State = cfg.State.Value
	}
	if cfg.Attribute.Value != "" {
		sel.Attribute = cfg.Attribute.Value
	}
	if cfg.Scheme.Value != "" {
		sel.Scheme = cfg.Scheme.Value
	}
	return sel
}

// ============================================================================
// COMMANDS
// ============================================================================

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	common := addCommonFlags(fs)
	sel := addSelectionFlags(fs)
	addr := fs.String("addr", "", "Listen address (default :8050)")
	fs.Parse(args)

	cfg := resolve(common, &sel, *addr)
	sch := loadSchema(cfg)
	view := loadView(context.Background(), cfg, sch)

	srv := web.NewServer(web.ServerConfig{
		View:      view,
		Schema:    sch,
		Estimator: profile.Build(view, sch.AttributeKeys()),
		Default: engine.Selection{
			State:     cfg.State.Value,
			Attribute: cfg.Attribute.Value,
			Scheme:    cfg.Scheme.Value,
		},
		Addr: cfg.Addr.Value,
	})
	if err := srv.ListenAndServe(); err != nil {
		fatalf("Server stopped: %v", err)
	}
}

func runSummarize(args []string) {
	fs := flag.NewFlagSet("summarize", flag.ExitOnError)
	common := addCommonFlags(fs)
	sel := addSelectionFlags(fs)
	format := fs.String("format", "json", "Output format: json, pretty, text, csv, xlsx")
	outFile := fs.String("out", "", "Write output to file instead of stdout")
	useSQL := fs.Bool("sql", false, "Count with SQL against the --db snapshot instead of in memory")
	share := fs.Bool("share", true, "Add the estimated national share column")
	fs.Parse(args)

	if *format == "xlsx" && *outFile == "" {
		fatalf("--format xlsx requires --out")
	}

	ctx := context.Background()
	cfg := resolve(common, &sel, "")
	sch := loadSchema(cfg)

	// SQL path: the snapshot alone answers the question.
	if *useSQL {
		summarizeSQL(ctx, cfg, sch, *format, *outFile)
		return
	}

	view := loadView(ctx, cfg, sch)
	opts := sch.EngineOptions()
	if *share {
		opts = append(opts, engine.WithShareEstimator(profile.Build(view, sch.AttributeKeys())))
	}
	if *format == "xlsx" {
		opts = append(opts, engine.WithRecordTable(
			append([]string{engine.StateKey, engine.NameKey}, sch.AttributeKeys()...)))
	}

	s := initialSelection(cfg, view, opts)
	dash, err := engine.Execute(s, view, opts...)
	if err != nil {
		fatalf("Summarize failed: %v", err)
	}

	w, closeOut := openOutput(*outFile)
	defer closeOut()

	switch *format {
	case "csv":
		if err := export.WriteCSV(w, dash); err != nil {
			fatalf("Failed to write CSV: %v", err)
		}
	case "xlsx":
		if err := export.WriteXLSX(w, dash); err != nil {
			fatalf("Failed to write XLSX: %v", err)
		}
	case "text":
		fmt.Fprintln(w, dash.Text.Value)
		for _, f := range dash.Frequency {
			fmt.Fprintf(w, "  %-12s %s\n", f.Value, engine.FormatInt(f.Count))
		}
	default:
		out := summaryOutput{
			Selection: dash.Selection,
			Frequency: dash.Frequency,
			Table:     dash.FrequencyTable,
			Text:      dash.Text,
		}
		writeJSON(w, out, *format)
	}
	if *outFile != "" {
		log.Printf("📄 %s written to %s", strings.ToUpper(*format), *outFile)
	}
}

func summarizeSQL(ctx context.Context, cfg config.ResolvedConfig, sch *schema.Config, format, outFile string) {
	st, err := openSnapshot(ctx, cfg.DBPath.Value)
	if err != nil {
		fatalf("%v", err)
	}
	defer st.Close()

	s := engine.Selection{State: cfg.State.Value, Attribute: cfg.Attribute.Value}
	if s.State == "" || s.Attribute == "" {
		fatalf("--sql requires --state and --attribute")
	}
	if _, ok := sch.Attribute(s.Attribute); !ok {
		fatalf("%v: %q", engine.ErrUnknownAttribute, s.Attribute)
	}
	freqs, err := st.Summarize(ctx, s.State, s.Attribute)
	if err != nil {
		fatalf("Summarize failed: %v", err)
	}

	w, closeOut := openOutput(outFile)
	defer closeOut()

	switch format {
	case "csv":
		if err := export.WriteFrequencyCSV(w, freqs); err != nil {
			fatalf("Failed to write CSV: %v", err)
		}
	case "text":
		fmt.Fprintln(w, engine.BuildText(s, freqs, sch.Sentinel).Value)
	case "xlsx":
		fatalf("--format xlsx is not available with --sql")
	default:
		writeJSON(w, summaryOutput{
			Selection: s,
			Frequency: freqs,
			Table:     engine.BuildFrequencyTable(s, freqs, nil),
			Text:      engine.BuildText(s, freqs, sch.Sentinel),
		}, format)
	}
}

func runRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	common := addCommonFlags(fs)
	sel := addSelectionFlags(fs)
	dir := fs.String("dir", ".", "Output directory")
	width := fs.Float64("width", 8, "Image width in inches")
	height := fs.Float64("height", 5, "Image height in inches")
	fs.Parse(args)

	cfg := resolve(common, &sel, "")
	sch := loadSchema(cfg)
	view := loadView(context.Background(), cfg, sch)
	opts := sch.EngineOptions()

	dash, err := engine.Execute(initialSelection(cfg, view, opts), view, opts...)
	if err != nil {
		fatalf("Render failed: %v", err)
	}
	size := render.Size{Width: vg.Length(*width) * vg.Inch, Height: vg.Length(*height) * vg.Inch}
	paths, err := render.WriteDashboard(*dir, dash, size)
	if err != nil {
		fatalf("Render failed: %v", err)
	}
	for _, p := range paths {
		log.Printf("🖼️  %s", p)
	}
}

func runMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	common := addCommonFlags(fs)
	useSQL := fs.Bool("sql", false, "Serve the --db snapshot and answer summaries with SQL")
	fs.Parse(args)

	// stdout carries the protocol
	log.SetOutput(os.Stderr)

	ctx := context.Background()
	cfg := resolve(common, nil, "")
	sch := loadSchema(cfg)

	var view engine.RecordView
	var st store.Store
	if *useSQL {
		// Summaries and every other tool answer from the same snapshot.
		var err error
		if st, err = openSnapshot(ctx, cfg.DBPath.Value); err != nil {
			fatalf("%v", err)
		}
		defer st.Close()
		if view, err = st.LoadView(ctx); err != nil {
			fatalf("Failed to load snapshot: %v", err)
		}
	} else {
		view = loadView(ctx, cfg, sch)
	}

	mcfg := mcp.ServerConfig{
		View:      view,
		Schema:    sch,
		Store:     st,
		Estimator: profile.Build(view, sch.AttributeKeys()),
		Version:   version,
	}
	if st != nil {
		if err := mcp.CheckSnapshot(ctx, st, view); err != nil {
			fatalf("Snapshot %s: %v", cfg.DBPath.Value, err)
		}
	}

	if err := mcp.ServeStdio(mcp.NewServer(mcfg)); err != nil {
		fatalf("MCP server stopped: %v", err)
	}
}

// openSnapshot opens an imported snapshot. An empty or missing snapshot is
// an error rather than an empty dataset.
func openSnapshot(ctx context.Context, path string) (store.Store, error) {
	st, err := store.NewStore(store.StoreConfig{DBPath: path})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	stats, err := st.Stats(ctx)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if stats.SchoolCount == 0 {
		st.Close()
		return nil, fmt.Errorf("snapshot %s is empty; run 'campusmap import' first", path)
	}
	return st, nil
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	common := addCommonFlags(fs)
	batch := fs.Int("batch", store.DefaultBatchSize, "Schools per progress log line")
	fs.Parse(args)

	ctx := context.Background()
	cfg := resolve(common, nil, "")
	if helpers.IsSnapshot(cfg.DataPath.Value) {
		fatalf("import reads a CSV file; got snapshot %s", cfg.DataPath.Value)
	}
	sch := loadSchema(cfg)

	st, err := store.NewStore(store.StoreConfig{DBPath: cfg.DBPath.Value, BatchSize: *batch})
	if err != nil {
		fatalf("Failed to open snapshot: %v", err)
	}
	defer st.Close()

	if _, err := helpers.Import(ctx, cfg.DataPath.Value, st, *sch); err != nil {
		fatalf("Import failed: %v", err)
	}
	stats, err := st.Stats(ctx)
	if err != nil {
		fatalf("Failed to read snapshot stats: %v", err)
	}
	fmt.Printf("%s schools, %d states, %d attributes, %s codes → %s\n",
		engine.FormatInt(int(stats.SchoolCount)), stats.StateCount, stats.AttributeCount,
		engine.FormatInt(int(stats.CodeCount)), cfg.DBPath.Value)
}

func runStates(args []string) {
	fs := flag.NewFlagSet("states", flag.ExitOnError)
	common := addCommonFlags(fs)
	fs.Parse(args)

	cfg := resolve(common, nil, "")
	sch := loadSchema(cfg)
	view := loadView(context.Background(), cfg, sch)
	writeStates(os.Stdout, view)
}

func runConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	common := addCommonFlags(fs)
	sel := addSelectionFlags(fs)
	addr := fs.String("addr", "", "Listen address")
	fs.Parse(args)

	cfg := resolve(common, &sel, *addr)
	writeConfig(os.Stdout, cfg)
}

// ============================================================================
// OUTPUT
// ============================================================================

type summaryOutput struct {
	Selection engine.Selection   `json:"selection"`
	Frequency []engine.Frequency `json:"frequency"`
	Table     *engine.TableData  `json:"table"`
	Text      *engine.TextData   `json:"text"`
}

// writeStates prints each state with its school count.
func writeStates(w io.Writer, view engine.RecordView) {
	for _, s := range engine.DistinctSorted(view, engine.StateKey) {
		n := engine.FilterEqual(view, engine.StateKey, s).Len()
		fmt.Fprintf(w, "%-4s %s\n", s, engine.FormatInt(n))
	}
}

func writeConfig(w io.Writer, cfg config.ResolvedConfig) {
	fmt.Fprintf(w, "config file: %s\n", cfg.ConfigPath)
	for _, nv := range cfg.Values() {
		if nv.Value.Value == "" {
			fmt.Fprintf(w, "  %-10s (unset)\n", nv.Name)
			continue
		}
		fmt.Fprintf(w, "  %-10s %s  [%s: %s]\n", nv.Name, nv.Value.Value, nv.Value.Source, nv.Value.From)
	}
}

func writeJSON(w io.Writer, v interface{}, format string) {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}

	if err != nil {
		fatalf("Failed to marshal output: %v", err)
	}
	fmt.Fprintln(w, string(out))
}

// ============================================================================
// HELPERS
// ============================================================================

func openOutput(path string) (io.Writer, func()) {
	if path == "" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		fatalf("Failed to create output file: %v", err)
	}
	return f, func() { f.Close() }
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
