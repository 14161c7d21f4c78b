// Package cli provides the command-line interface for ryt.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/ytget/ryt/internal/config"
	"github.com/ytget/ryt/internal/download"
	"github.com/ytget/ryt/internal/engine/ytdlp"
	"github.com/ytget/ryt/internal/events"
	"github.com/ytget/ryt/internal/library"
	"github.com/ytget/ryt/internal/logging"
)

// Version is set by the main package at startup
var Version = "dev"

// newEngine builds the download engine. Tests replace it.
var newEngine = func(settings *config.Settings, logger *logging.Logger) download.Engine {
	return ytdlp.New(settings.GetDownloadDirectory(),
		ytdlp.WithExecutable(settings.GetYTDLPPath()),
		ytdlp.WithLogger(logger),
		ytdlp.WithBufferSize(settings.GetEventBuffer()),
	)
}

// openLibrary opens the store named by a DSN. Tests replace it.
var openLibrary = library.Open

// rootOptions holds the global flags
type rootOptions struct {
	envFile     string
	downloadDir string
	libraryDSN  string
	ytdlpPath   string
	verbose     bool
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "ryt",
		Short: "Download media with yt-dlp and keep a library of finished downloads",
		Long: `ryt submits URLs to yt-dlp, shows their progress and records every
successful download in a local library (sqlite by default, PostgreSQL
when --library is a postgres:// URL).`,
		Version:      Version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env", ".env", "Path to a .env file (ignored if missing)")
	rootCmd.PersistentFlags().StringVar(&opts.downloadDir, "download-dir", "", "Directory downloads are saved to")
	rootCmd.PersistentFlags().StringVar(&opts.libraryDSN, "library", "", "Library DSN (sqlite path, sqlite:<path> or postgres:// URL)")
	rootCmd.PersistentFlags().StringVar(&opts.ytdlpPath, "ytdlp", "", "Path to the yt-dlp executable")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.AddCommand(newGetCmd(opts))
	rootCmd.AddCommand(newLibraryCmd(opts))
	rootCmd.AddCommand(newOpenCmd(opts))

	return rootCmd
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return NewRootCmd().ExecuteContext(ctx)
}

// settings resolves configuration with flag overrides applied.
func (o *rootOptions) settings() (*config.Settings, error) {
	settings, err := config.Load(o.envFile)
	if err != nil {
		return nil, err
	}
	if o.downloadDir != "" {
		settings.SetDownloadDirectory(o.downloadDir)
	}
	if o.libraryDSN != "" {
		settings.SetLibraryDSN(o.libraryDSN)
	}
	if o.ytdlpPath != "" {
		settings.SetYTDLPPath(o.ytdlpPath)
	}
	if o.verbose {
		settings.SetLogLevel("debug")
	}
	return settings, nil
}

// app wires the manager for one command invocation
type app struct {
	settings *config.Settings
	logger   *logging.Logger
	store    library.Store
	bus      *events.EventBus
	manager  *download.Manager
}

// newApp builds the manager. Logs go to logOut, or to stderr when nil; pass
// the progress writer so log lines print above the bars.
func (o *rootOptions) newApp(cmd *cobra.Command, logOut io.Writer) (*app, error) {
	settings, err := o.settings()
	if err != nil {
		return nil, err
	}

	if logOut == nil {
		logOut = cmd.ErrOrStderr()
	}
	logger := logging.NewLogger(logOut, settings.GetLogFormat())
	logging.SetGlobalLevel(logging.ParseLevel(settings.GetLogLevel()))
	logger.Debug().
		Str("library", settings.GetLibraryDSN()).
		Str("download_dir", settings.GetDownloadDirectory()).
		Msg("configuration loaded")

	store, err := openLibrary(cmd.Context(), settings.GetLibraryDSN())
	if err != nil {
		return nil, err
	}

	bus := events.NewEventBus(settings.GetEventBuffer())
	mgr := download.New(store, newEngine(settings, logger),
		download.WithLogger(logger),
		download.WithEventBus(bus),
	)

	return &app{
		settings: settings,
		logger:   logger,
		store:    store,
		bus:      bus,
		manager:  mgr,
	}, nil
}

// close releases the bus and the store; safe after run returned.
func (a *app) close() {
	a.bus.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("close library")
	}
}

// run starts the manager loop, runs fn and stops the loop.
func (a *app) run(ctx context.Context, fn func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	loopCtx, stopLoop := context.WithCancel(gctx)
	defer stopLoop()

	g.Go(func() error {
		return a.manager.Run(loopCtx)
	})
	g.Go(func() error {
		defer stopLoop()
		return fn(gctx)
	})
	return g.Wait()
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
