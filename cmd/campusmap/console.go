package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/spektr-org/campusmap/engine"
	"github.com/spektr-org/campusmap/export"
	"github.com/spektr-org/campusmap/profile"
	"github.com/spektr-org/campusmap/render"
	"github.com/spektr-org/campusmap/schema"
	"github.com/spektr-org/campusmap/translator"
)

// ============================================================================
// CONSOLE — Interactive selection prompt
// ============================================================================
// Every line is either a verb (show, define NECTA, export csv out.csv) or a
// selection change ("ma necta blue", "state=NY"). A selection change prints
// the new summary right away.
// ============================================================================

func runConsole(args []string) {
	fs := flag.NewFlagSet("console", flag.ExitOnError)
	common := addCommonFlags(fs)
	sel := addSelectionFlags(fs)
	fs.Parse(args)

	cfg := resolve(common, &sel, "")
	sch := loadSchema(cfg)
	view := loadView(context.Background(), cfg, sch)

	c := newConsole(view, sch, os.Stdout)
	c.sel = initialSelection(cfg, view, c.opts)

	home, _ := os.UserHomeDir()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.prompt(),
		HistoryFile:     filepath.Join(home, ".campusmap", "console_history"),
		AutoComplete:    c.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		fatalf("Failed to start console: %v", err)
	}
	defer rl.Close()
	c.out = rl.Stdout()

	fmt.Fprintf(c.out, "campusmap %s: %d schools. Type 'help' for commands.\n", version, view.Len())
	c.show()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return
			}
			continue
		}
		if err == io.EOF {
			return
		}
		if c.exec(line) {
			return
		}
		rl.SetPrompt(c.prompt())
	}
}

type console struct {
	view     engine.RecordView
	schema   *schema.Config
	opts     []engine.Option
	controls engine.Controls
	parser   translator.Translator
	sel      engine.Selection
	out      io.Writer
}

func newConsole(view engine.RecordView, sch *schema.Config, out io.Writer) *console {
	opts := append(sch.EngineOptions(),
		engine.WithShareEstimator(profile.Build(view, sch.AttributeKeys())))
	controls := engine.BuildControls(view, opts...)
	return &console{
		view:     view,
		schema:   sch,
		opts:     opts,
		controls: controls,
		parser:   translator.NewParser(controls, sch),
		sel:      engine.DefaultSelection(view, opts...),
		out:      out,
	}
}

func (c *console) prompt() string {
	return fmt.Sprintf("%s/%s/%s> ", c.sel.State, c.sel.Attribute, c.sel.Scheme)
}

func (c *console) completer() *readline.PrefixCompleter {
	attrs := func(string) []string { return c.controls.Attributes }
	return readline.NewPrefixCompleter(
		readline.PcItem(translator.VerbShow),
		readline.PcItem(translator.VerbStates),
		readline.PcItem(translator.VerbAttributes),
		readline.PcItem(translator.VerbSchemes),
		readline.PcItem(translator.VerbDefine, readline.PcItemDynamic(attrs)),
		readline.PcItem(translator.VerbExport,
			readline.PcItem("csv"),
			readline.PcItem("xlsx"),
		),
		readline.PcItem(translator.VerbRender),
		readline.PcItem("set",
			readline.PcItemDynamic(func(string) []string { return c.controls.States }),
			readline.PcItemDynamic(attrs),
			readline.PcItemDynamic(func(string) []string { return c.controls.Schemes }),
		),
		readline.PcItem(translator.VerbHelp),
		readline.PcItem(translator.VerbQuit),
	)
}

// exec runs one console line and reports whether the console should exit.
func (c *console) exec(line string) bool {
	cmd := translator.ParseCommand(line)
	switch cmd.Verb {
	case translator.VerbQuit:
		return true
	case translator.VerbHelp:
		c.help()
	case translator.VerbShow:
		c.show()
	case translator.VerbStates:
		writeStates(c.out, c.view)
	case translator.VerbAttributes:
		for _, a := range c.schema.Attributes {
			fmt.Fprintf(c.out, "  %-8s %s\n", a.Key, a.DisplayName)
		}
	case translator.VerbSchemes:
		fmt.Fprintf(c.out, "  %s\n", strings.Join(c.controls.Schemes, ", "))
	case translator.VerbDefine:
		c.define(cmd.Args)
	case translator.VerbExport:
		c.export(cmd.Args)
	case translator.VerbRender:
		c.render(cmd.Args)
	case translator.VerbSelect:
		if len(cmd.Args) == 0 || strings.TrimSpace(cmd.Args[0]) == "" {
			return false
		}
		res, err := c.parser.Translate(cmd.Args[0], c.sel)
		if err != nil {
			fmt.Fprintf(c.out, "⚠️  %v\n", err)
			return false
		}
		c.sel = res.Selection
		fmt.Fprintln(c.out, res.Interpretation.Summary)
		c.show()
	}
	return false
}

func (c *console) dashboard(extra ...engine.Option) (*engine.Dashboard, bool) {
	opts := append(c.opts[:len(c.opts):len(c.opts)], extra...)
	dash, err := engine.Execute(c.sel, c.view, opts...)
	if err != nil {
		fmt.Fprintf(c.out, "⚠️  %v\n", err)
		return nil, false
	}
	return dash, true
}

func (c *console) show() {
	dash, ok := c.dashboard()
	if !ok {
		return
	}
	fmt.Fprintln(c.out, dash.Text.Value)
	t := dash.FrequencyTable
	for _, row := range t.Rows {
		fmt.Fprintf(c.out, "  %-12s %8s", row[0], row[1])
		if len(row) > 2 {
			fmt.Fprintf(c.out, "  %7s", row[2])
		}
		fmt.Fprintln(c.out)
	}
}

func (c *console) define(args []string) {
	key := c.sel.Attribute
	if len(args) > 0 {
		key = strings.Join(args, " ")
	}
	for _, a := range c.schema.Attributes {
		if strings.EqualFold(a.Key, key) || strings.EqualFold(a.DisplayName, key) {
			fmt.Fprintf(c.out, "%s (%s)\n  %s\n", a.DisplayName, a.Key, a.Description)
			if a.Source != "" {
				fmt.Fprintf(c.out, "  Source: %s\n", a.Source)
			}
			return
		}
	}
	fmt.Fprintf(c.out, "⚠️  unknown attribute %q\n", key)
}

func (c *console) export(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "usage: export csv|xlsx PATH")
		return
	}
	format, path := strings.ToLower(args[0]), args[1]
	if format != "csv" && format != "xlsx" {
		fmt.Fprintf(c.out, "⚠️  unknown export format %q (csv or xlsx)\n", format)
		return
	}

	var extra []engine.Option
	if format == "xlsx" {
		extra = append(extra, engine.WithRecordTable(
			append([]string{engine.StateKey, engine.NameKey}, c.schema.AttributeKeys()...)))
	}
	dash, ok := c.dashboard(extra...)
	if !ok {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(c.out, "⚠️  %v\n", err)
		return
	}
	defer f.Close()

	if format == "csv" {
		err = export.WriteCSV(f, dash)
	} else {
		err = export.WriteXLSX(f, dash)
	}
	if err != nil {
		fmt.Fprintf(c.out, "⚠️  %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "📄 %s written to %s\n", strings.ToUpper(format), path)
}

func (c *console) render(args []string) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	dash, ok := c.dashboard()
	if !ok {
		return
	}
	paths, err := render.WriteDashboard(dir, dash, render.DefaultSize)
	if err != nil {
		fmt.Fprintf(c.out, "⚠️  %v\n", err)
		return
	}
	for _, p := range paths {
		fmt.Fprintf(c.out, "🖼️  %s\n", p)
	}
}

func (c *console) help() {
	fmt.Fprint(c.out, `Commands:
  show                   Summary for the current selection
  states                 States with school counts
  attributes             Selectable statistical attributes
  schemes                Color schemes
  define [ATTRIBUTE]     Definition and source of an attribute
  export csv|xlsx PATH   Save the current dashboard
  render [DIR]           Write frequency, heatmap and map PNGs
  quit                   Leave the console
Anything else changes the selection:
  ma necta blue          state=NY attribute=CBSA     {"scheme": "Green"}
`)
}
