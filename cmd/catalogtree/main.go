package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/catalogtree/pkg/catalog"
	"github.com/vanderheijden86/catalogtree/pkg/config"
	"github.com/vanderheijden86/catalogtree/pkg/debug"
	"github.com/vanderheijden86/catalogtree/pkg/drag"
	"github.com/vanderheijden86/catalogtree/pkg/loader"
	"github.com/vanderheijden86/catalogtree/pkg/model"
	"github.com/vanderheijden86/catalogtree/pkg/tree"
	"github.com/vanderheijden86/catalogtree/pkg/ui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type options struct {
	catalogs   listFlag
	moves      listFlag
	configPath string
	stateDir   string
	export     string
	dump       bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("catalogtree", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Var(&opts.catalogs, "catalog", "Catalog file to load (.json, .yaml); repeat to merge several")
	fs.Var(&opts.moves, "move", "Move a node before viewing: SOURCE:TARGET[:above|center|below] (repeatable)")
	fs.StringVar(&opts.configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/catalogtree/config.yaml)")
	fs.StringVar(&opts.stateDir, "state", "", "Directory for saved expand/collapse state")
	fs.StringVar(&opts.export, "export", "", "Write the catalog after moves to a file (.json, .yaml) or - for stdout")
	fs.BoolVar(&opts.dump, "dump", false, "Print the flat projection as JSON instead of starting the viewer")
	fs.BoolVar(&opts.version, "version", false, "Show version")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: catalogtree [options]")
		fmt.Fprintln(stderr, "\nA terminal tree view of a product catalog with drag-and-drop reordering.")
		fs.PrintDefaults()
	}
	err := fs.Parse(args)
	return opts, err
}

// moveOp is one scripted drop from the -move flag.
type moveOp struct {
	Source int64
	Target int64
	Zone   model.DropZone
}

// parseMove parses "SOURCE:TARGET[:ZONE]"; the zone defaults to center.
func parseMove(s string) (moveOp, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return moveOp{}, fmt.Errorf("invalid move %q: want SOURCE:TARGET[:ZONE]", s)
	}
	src, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return moveOp{}, fmt.Errorf("invalid move %q: source id: %w", s, err)
	}
	dst, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return moveOp{}, fmt.Errorf("invalid move %q: target id: %w", s, err)
	}
	op := moveOp{Source: src, Target: dst, Zone: model.ZoneCenter}
	if len(parts) == 3 {
		op.Zone = model.DropZone(strings.ToLower(parts[2]))
		if !op.Zone.IsValid() {
			return moveOp{}, fmt.Errorf("invalid move %q: unknown zone %q", s, parts[2])
		}
	}
	return op, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintf(stdout, "catalogtree %s\n", version)
		return nil
	}

	ops := make([]moveOp, 0, len(opts.moves))
	for _, s := range opts.moves {
		op, err := parseMove(s)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	roots, source, err := loadCatalog(ctx, opts.catalogs)
	if err != nil {
		return err
	}
	debug.Log("loaded %d roots from %s", len(roots), source)

	f := tree.NewFlattener()
	store, err := catalog.New(roots, catalog.WithRemoveHook(f.Forget))
	if err != nil {
		return err
	}
	if err := applyMoves(store, f, cfg, ops); err != nil {
		return err
	}

	if opts.export != "" {
		if err := export(store, opts.export, stdout); err != nil {
			return err
		}
		if opts.export == "-" {
			return nil
		}
	}

	if opts.dump || !isTerminal(stdout) {
		return dump(stdout, f.Project(store.Roots(), nil))
	}

	stateDir := opts.stateDir
	if stateDir == "" && source != "sample" && len(opts.catalogs) == 0 {
		stateDir = filepath.Dir(source)
	}
	return runTUI(store, f, cfg, stateDir)
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// loadCatalog reads the -catalog files, else the nearest .catalogtree
// catalog, else the built-in sample. It also reports where the catalog came
// from.
func loadCatalog(ctx context.Context, paths []string) ([]*model.TreeNode, string, error) {
	if len(paths) > 0 {
		roots, err := loader.LoadAll(ctx, paths...)
		return roots, strings.Join(paths, ", "), err
	}
	if path, ok := config.DetectCatalog(); ok {
		roots, err := loader.Load(path)
		return roots, path, err
	}
	roots, err := loader.Sample()
	return roots, "sample", err
}

// applyMoves replays scripted drops through a drag session, so they follow
// the same rules as drops in the viewer.
func applyMoves(store *catalog.Store, f *tree.Flattener, cfg config.Config, ops []moveOp) error {
	if len(ops) == 0 {
		return nil
	}
	session := drag.NewSession(store, f, tree.NewExpansion(true), drag.FromConfig(cfg)...)
	for _, op := range ops {
		rows := f.Project(store.Roots(), nil)
		src, dst := findRow(rows, op.Source), findRow(rows, op.Target)
		if src == nil {
			return &model.TreeError{Op: "move", ID: op.Source, Err: model.ErrNotFound}
		}
		if dst == nil {
			return &model.TreeError{Op: "move", ID: op.Target, Err: model.ErrNotFound}
		}

		if err := session.DragStart(src); err != nil {
			return err
		}
		if _, err := session.DragOver(dst, session.FractionFor(op.Zone)); err != nil {
			session.DragEnd()
			return err
		}
		if _, err := session.Drop(dst); err != nil {
			return fmt.Errorf("move %d %s %d: %w", op.Source, op.Zone, op.Target, err)
		}
		debug.Log("moved %d %s %d", op.Source, op.Zone, op.Target)
	}
	return nil
}

func findRow(rows []*tree.FlatNode, id int64) *tree.FlatNode {
	for _, row := range rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

func export(store *catalog.Store, path string, stdout io.Writer) error {
	if path == "-" {
		return loader.Encode(stdout, store.Roots(), loader.FormatJSON)
	}
	format, err := loader.FormatFor(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export: %w", err)
	}
	if err := loader.Encode(file, store.Roots(), format); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func dump(w io.Writer, rows []*tree.FlatNode) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runTUI(store *catalog.Store, f *tree.Flattener, cfg config.Config, stateDir string) error {
	if debug.Enabled() {
		logFile, err := tea.LogToFile(filepath.Join(os.TempDir(), "catalogtree-debug.log"), "catalogtree")
		if err != nil {
			return err
		}
		defer logFile.Close()
		debug.SetOutput(logFile)
	}

	var opts []ui.Option
	if stateDir != "" {
		opts = append(opts, ui.WithStateDir(stateDir))
	}
	m := ui.NewModel(store, f, cfg, opts...)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}
