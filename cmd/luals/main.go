// Command luals is a static analysis language server for Lua.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"zombiezen.com/go/log"

	"github.com/luaowl/luacore/internal/config"
	"github.com/luaowl/luacore/internal/diagnostic"
	"github.com/luaowl/luacore/internal/lexer"
	"github.com/luaowl/luacore/internal/lsp"
	"github.com/luaowl/luacore/internal/query"
	"github.com/luaowl/luacore/internal/semindex"
	"github.com/luaowl/luacore/internal/syntax"
	"github.com/luaowl/luacore/internal/text"
	"github.com/luaowl/luacore/internal/vfs"
)

type globalConfig struct {
	configPath string
}

var initLogOnce sync.Once

func initLogging(showDebug bool) {
	initLogOnce.Do(func() {
		minLogLevel := log.Info
		if showDebug {
			minLogLevel = log.Debug
		}
		log.SetDefault(&log.LevelFilter{
			Min:    minLogLevel,
			Output: log.New(os.Stderr, "luals: ", log.StdFlags, nil),
		})
	})
}

func main() {
	rootCommand := &cobra.Command{
		Use:           "luals",
		Short:         "static analysis language server for Lua",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	g := &globalConfig{configPath: ".luarc.json"}
	rootCommand.PersistentFlags().StringVar(&g.configPath, "config", g.configPath, "`path` to the workspace configuration document")
	showDebug := rootCommand.PersistentFlags().Bool("debug", false, "show debugging output")
	rootCommand.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		initLogging(*showDebug)
		return nil
	}

	rootCommand.AddCommand(
		newServeCommand(g),
		newCheckCommand(g),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCommand.ExecuteContext(ctx)
	cancel()
	if err != nil {
		initLogging(*showDebug)
		log.Errorf(context.Background(), "%v", err)
		os.Exit(1)
	}
}

// loadWorkspace reads the configuration document, applies its
// runtime.requireLikeFunction names globally, and builds an empty workspace
// ready to receive files.
func loadWorkspace(g *globalConfig) (*config.Config, *query.Workspace, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, nil, err
	}
	semindex.RequireNames = cfg.RequireNames()

	ws := query.New(cfg.InferVersion())
	ws.SetWorkspaceRoots(cfg.Workspace.WorkspaceRoots)
	ws.SetPreferMeta(cfg.Strict.MetaOverrideFileDefine)
	return cfg, ws, nil
}

func newServeCommand(g *globalConfig) *cobra.Command {
	c := &cobra.Command{
		Use:           "serve",
		Short:         "run the language server over stdio",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), g)
	}
	return c
}

func runServe(ctx context.Context, g *globalConfig) error {
	cfg, ws, err := loadWorkspace(g)
	if err != nil {
		return err
	}
	engine := diagnosticEngine(cfg)
	srv := lsp.NewServer(ws, engine, cfg.LexerVersion())
	return srv.RunStdio(ctx)
}

// diagnosticEngine builds the checker set honoring diagnostics.disable.
func diagnosticEngine(cfg *config.Config) *diagnostic.Engine {
	disabled := cfg.DisabledCodes()
	if len(disabled) == 0 {
		return diagnostic.NewDefaultEngine()
	}
	all := []diagnostic.Checker{
		diagnostic.UndefinedGlobalChecker{},
		diagnostic.UnusedLocalChecker{},
		diagnostic.CastTypeMismatchChecker{},
		diagnostic.EnumValueMismatchChecker{},
		diagnostic.IncompleteSignatureDocChecker{},
		diagnostic.DuplicatePrimaryKeyChecker{},
		diagnostic.InvalidIndexFieldChecker{},
		diagnostic.PreferredLocalAliasChecker{},
	}
	var enabled []diagnostic.Checker
	for _, c := range all {
		if !allCodesDisabled(c.Codes(), disabled) {
			enabled = append(enabled, c)
		}
	}
	return diagnostic.NewEngine(enabled...)
}

func allCodesDisabled(codes []diagnostic.Code, disabled map[diagnostic.Code]bool) bool {
	for _, code := range codes {
		if !disabled[code] {
			return false
		}
	}
	return len(codes) > 0
}

type checkOptions struct {
	paths []string
}

func newCheckCommand(g *globalConfig) *cobra.Command {
	opts := new(checkOptions)
	c := &cobra.Command{
		Use:                   "check [options] PATH [...]",
		Short:                 "run diagnostics over a set of files or directories once and exit",
		DisableFlagsInUseLine: true,
		Args:                  cobra.MinimumNArgs(1),
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		opts.paths = args
		return runCheck(cmd.Context(), g, opts)
	}
	return c
}

// runCheck indexes every .lua file under the given paths, runs the
// diagnostic engine over each one, and prints them grep-style to stdout. It
// exits with a non-zero status (via the returned error) if any
// error-severity diagnostic was found.
func runCheck(ctx context.Context, g *globalConfig, opts *checkOptions) error {
	cfg, ws, err := loadWorkspace(g)
	if err != nil {
		return err
	}
	engine := diagnosticEngine(cfg)
	runID := uuid.NewString()
	log.Debugf(ctx, "check run %s: indexing %d path(s)", runID, len(opts.paths))

	parseOpts := syntax.ParseOptions{LexerOpts: lexer.Options{Version: cfg.LexerVersion()}, ParseDocTags: true}

	var files []string
	for _, root := range opts.paths {
		found, err := collectLuaFiles(root)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}

	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if _, _, err := ws.FileUpdate(ctx, path, src, vfs.TagMain, parseOpts); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	snap := ws.Snapshot()
	hadError := false
	for _, path := range files {
		file, tree, ok := snap.File(path)
		if !ok {
			continue
		}
		index, _ := snap.Database().FileIndex(file)
		model := &diagnostic.Model{File: file, Tree: tree, Index: index, DB: snap.Database(), Engine: snap.Engine()}
		diags, err := engine.Run(ctx, model)
		if err != nil {
			return fmt.Errorf("check %s: %w", path, err)
		}
		li := text.NewLineIndex(tree.Source)
		for _, d := range diags {
			if d.Severity == diagnostic.SeverityError {
				hadError = true
			}
			printDiagnostic(path, li, d)
		}
	}

	if hadError {
		return fmt.Errorf("check run %s found error-severity diagnostics", runID)
	}
	return nil
}

func printDiagnostic(path string, li *text.LineIndex, d diagnostic.Diagnostic) {
	pt, err := li.OffsetToPoint(d.Span.Start)
	if err != nil {
		fmt.Printf("%s: %s: %s\n", path, d.Code, d.Message)
		return
	}
	fmt.Printf("%s:%d:%d: %s: %s [%s]\n", path, pt.Line+1, pt.Column+1, severityLabel(d.Severity), d.Message, d.Code)
}

func severityLabel(s diagnostic.Severity) string {
	switch s {
	case diagnostic.SeverityError:
		return "error"
	case diagnostic.SeverityWarning:
		return "warning"
	case diagnostic.SeverityInfo:
		return "info"
	case diagnostic.SeverityHint:
		return "hint"
	default:
		return "warning"
	}
}

func collectLuaFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var out []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".lua") {
			return nil
		}
		out = append(out, path)
		return nil
	})
	return out, err
}
