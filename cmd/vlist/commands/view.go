package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agiangrant/vlist/config"
	"github.com/agiangrant/vlist/frame"
	"github.com/agiangrant/vlist/internal/source"
	"github.com/agiangrant/vlist/internal/termview"
	"github.com/agiangrant/vlist/logger"
)

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Browse a file, stdin or query result in the terminal",
		Long: `Browse a document one virtualized line at a time.

Lines are word-wrapped and measured in the background unless --static is
given, in which case every line is one row tall.

Keys: arrows, j/k, PgUp/PgDn, space, Home/End, g/G, <n>G or <n>Enter to jump
to line n, q or Esc to quit. With --static, left/right and h/l scroll
sideways. Drag with the left button to fling.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runView,
	}
	cmd.Flags().String("db", "", "SQLite database to read lines from")
	cmd.Flags().String("query", "", "SQL query whose first column becomes the lines (requires --db)")
	cmd.Flags().Bool("static", false, "Give every line a height of one row")
	cmd.Flags().Bool("watch", false, "Apply config file changes while running")
	cmd.Flags().String("style", termview.DefaultStyle, "Syntax highlighting style")
	cmd.Flags().String("log", "", "Write logs to this file")
	return cmd
}

func runView(cmd *cobra.Command, args []string) error {
	static, _ := cmd.Flags().GetBool("static")
	watch, _ := cmd.Flags().GetBool("watch")
	style, _ := cmd.Flags().GetString("style")
	logPath, _ := cmd.Flags().GetString("log")

	cfg, cfgPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var logOut io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	log, err := cfg.NewLogger(logOut)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, err := loadDocument(ctx, cmd, args)
	if err != nil {
		return err
	}
	log.Info("document loaded", "name", doc.Name, "lines", len(doc.Lines), "language", doc.Language)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	drv := termview.NewTcellDriver(screen)
	if err := drv.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer drv.Fini()
	drv.SetStyle(tcell.StyleDefault)
	drv.HideCursor()

	loop := frame.NewLoop(cfg.LoopConfig(log))
	v := termview.New(drv, loop, doc, termview.Options{
		Config: cfg,
		Static: static,
		Style:  style,
		Logger: log,
	})
	defer v.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	if watch && cfgPath != "" {
		g.Go(func() error { return watchConfig(gctx, cfgPath, log, loop, v) })
	}
	g.Go(func() error {
		// quitting the viewer stops the watcher
		defer cancel()
		return v.Run(gctx, loop)
	})
	return g.Wait()
}

// watchConfig applies config changes until ctx is done. A watcher that
// cannot start is logged and leaves the viewer running.
func watchConfig(ctx context.Context, path string, log logger.Logger, loop *frame.Loop, v *termview.View) error {
	err := config.Watch(ctx, path, log, func(cfg config.Config, err error) {
		if err != nil {
			log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		loop.Post(func() { v.Reconfigure(cfg) })
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("config watch stopped", "path", path, "error", err)
	}
	return nil
}

// loadDocument reads the query result, the named file or stdin, in that
// order of preference.
func loadDocument(ctx context.Context, cmd *cobra.Command, args []string) (*source.Document, error) {
	dsn, _ := cmd.Flags().GetString("db")
	query, _ := cmd.Flags().GetString("query")

	switch {
	case dsn != "" || query != "":
		if dsn == "" || query == "" {
			return nil, errors.New("--db and --query must be used together")
		}
		if len(args) > 0 {
			return nil, errors.New("a file cannot be combined with --db")
		}
		return source.Query(ctx, dsn, query)
	case len(args) == 1 && args[0] != "-":
		return source.LoadFile(args[0])
	default:
		lines, err := source.ReadLines(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		return &source.Document{Name: "stdin", Lines: lines}, nil
	}
}
