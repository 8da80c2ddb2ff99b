package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/nao1215/dirmirror/internal/config"
	"github.com/nao1215/dirmirror/internal/crawler"
	"github.com/nao1215/dirmirror/internal/database"
	dmlog "github.com/nao1215/dirmirror/internal/log"
	"github.com/nao1215/dirmirror/internal/mirror"
	"github.com/nao1215/dirmirror/internal/model"
	"github.com/nao1215/dirmirror/internal/pipeline"
	"github.com/nao1215/dirmirror/internal/remote"
	"github.com/nao1215/dirmirror/internal/report"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// errNotTerminal is returned by --ask-password when stdin is not a terminal.
var errNotTerminal = errors.New("--ask-password requires an interactive terminal")

// NewMirrorCmd creates the mirror command.
func NewMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror [base-url]",
		Short: "Download every file below a directory listing",
		Long: `Mirror walks the directory listing at base-url breadth-first, collects every
file path, then downloads the files one by one into the destination directory,
recreating the remote folder structure.

The base URL and credentials come from the configuration file, the
DIRMIRROR_BASE_URL, DIRMIRROR_USERNAME and DIRMIRROR_PASSWORD environment
variables, and the command line, in increasing order of precedence.

Examples:
  # Mirror using dirmirror.yaml in the current directory
  dirmirror mirror

  # Mirror a listing given on the command line
  dirmirror mirror -u alice --ask-password https://files.example.com/pub/

  # Only print what would be downloaded
  dirmirror mirror --dry-run

  # Skip ISO images and limit bandwidth to 1MB/s
  dirmirror mirror --ignore '*.iso' --rate-limit 1048576

  # Save a Markdown report of the run
  dirmirror mirror --markdown -o report.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMirrorCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file (default: ./dirmirror.yaml or $XDG_CONFIG_HOME/dirmirror/config.yaml)")

	// Location and credentials
	cmd.Flags().StringP("username", "u", "", "Basic authentication username")
	cmd.Flags().String("password", "", "Basic authentication password (prefer DIRMIRROR_PASSWORD)")
	cmd.Flags().Bool("ask-password", false, "Prompt for the password on the terminal")

	// Crawl and download behavior
	cmd.Flags().StringP("destination", "d", config.DefaultDestination,
		"Local directory the remote tree is mirrored under")
	cmd.Flags().Duration("delay", config.DefaultCrawlDelay,
		"Pause between listing fetches")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request (0 relies on network timeouts)")
	cmd.Flags().Int64("rate-limit", 0,
		"Download bandwidth limit in bytes per second (0 means unlimited)")
	cmd.Flags().Int64("max-listing-size", config.DefaultMaxListingSize,
		"Maximum bytes read from a single listing page")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().StringSlice("ignore", nil,
		"Glob pattern of relative paths to skip (repeatable)")
	cmd.Flags().String("socks-proxy", "",
		"Route requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().Bool("dry-run", false,
		"Walk the listing and print the inventory without downloading")

	// Report and history
	cmd.Flags().BoolP("json", "j", false, "Output the run report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output the run report in Markdown format")
	cmd.Flags().StringP("output", "o", "",
		"Write the run report to a file (a text summary is still printed)")
	cmd.Flags().Bool("no-history", false, "Do not record the run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")
	cmd.Flags().Bool("log-json", false, "Write logs to stderr as JSON")

	return cmd
}

func runMirrorCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args, os.LookupEnv)
	if err != nil {
		return err
	}

	askPassword, err := cmd.Flags().GetBool("ask-password")
	if err != nil {
		return err
	}
	if askPassword {
		cfg.Password, err = promptPassword(cmd.ErrOrStderr(), int(os.Stdin.Fd())) //nolint:gosec // fd fits in int
		if err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return err
	}
	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, logJSON)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runMirror(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig merges the configuration file, the environment and the flags
// that were set explicitly, in that order. A positional argument overrides
// the base URL.
func buildConfig(cmd *cobra.Command, args []string, lookupEnv func(string) (string, bool)) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit --config must exist; the default locations are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	config.ApplyEnv(cfg, lookupEnv)

	if flags.Changed("username") {
		if cfg.Username, err = flags.GetString("username"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("password") {
		if cfg.Password, err = flags.GetString("password"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("destination") {
		if cfg.Destination, err = flags.GetString("destination"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("delay") {
		if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("rate-limit") {
		if cfg.RateLimit, err = flags.GetInt64("rate-limit"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("max-listing-size") {
		if cfg.MaxListingSize, err = flags.GetInt64("max-listing-size"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("ignore") {
		patterns, err := flags.GetStringSlice("ignore")
		if err != nil {
			return nil, err
		}
		cfg.IgnorePatterns = append(cfg.IgnorePatterns, patterns...)
	}
	if flags.Changed("socks-proxy") {
		if cfg.SOCKSProxy, err = flags.GetString("socks-proxy"); err != nil {
			return nil, err
		}
	}

	if len(args) > 0 {
		cfg.BaseURL = args[0]
	}

	if cfg.DryRun, err = flags.GetBool("dry-run"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

// promptPassword reads a password from the terminal without echoing it.
func promptPassword(w io.Writer, fd int) (string, error) {
	if !term.IsTerminal(fd) {
		return "", errNotTerminal
	}
	fmt.Fprint(w, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// setupLogger creates the secure structured logger used for the whole run.
func setupLogger(w io.Writer, verbose, jsonFormat bool) *slog.Logger {
	if jsonFormat {
		return dmlog.NewSecureJSONLogger(w, verbose)
	}
	return dmlog.NewSecureLogger(w, verbose)
}

// runMirror performs one mirror run with a validated configuration. The
// report is written and the run recorded even when the run fails; the run
// error is returned afterwards.
func runMirror(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	baseURL := config.NormalizeBaseURL(cfg.BaseURL)

	clientOpts := []remote.Option{
		remote.WithTimeout(cfg.Timeout),
		remote.WithUserAgent(cfg.UserAgent),
		remote.WithMaxListingSize(cfg.MaxListingSize),
	}
	if cfg.SOCKSProxy != "" {
		clientOpts = append(clientOpts, remote.WithSOCKS5Proxy(cfg.SOCKSProxy))
	}
	client, err := remote.NewClient(remote.Credentials{
		Username: cfg.Username,
		Password: cfg.Password,
	}, clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	fmt.Fprintf(stdout, "Using %s\n", dmlog.RedactURLs(baseURL))
	logger.Info("starting mirror",
		"base_url", baseURL,
		"destination", cfg.Destination,
		"dry_run", cfg.DryRun,
	)

	walker := crawler.NewWalker(client,
		crawler.WithDelay(cfg.CrawlDelay),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithWalkerLogger(logger),
		crawler.WithListingCallback(func(folder string, files, folders int) {
			logger.Debug("listing expanded", "folder", folder, "files", files, "folders", folders)
		}),
	)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddStep(pipeline.NewWalkStep(walker, logger))

	if !cfg.DryRun {
		downloader := mirror.NewDownloader(client, osfs.New(cfg.Destination),
			mirror.WithChunkSize(cfg.ChunkSize),
			mirror.WithRateLimit(cfg.RateLimit),
			mirror.WithDownloaderLogger(logger),
		)
		p.AddStep(pipeline.NewDownloadStep(downloader,
			pipeline.WithProgress(newBarProgress(stdout, stderr)),
			pipeline.WithDownloadLogger(logger),
		))
	}

	mirrorReport := model.NewMirrorReport(baseURL, cfg.Destination)
	mirrorReport.DryRun = cfg.DryRun

	runErr := p.Execute(ctx, mirrorReport)
	mirrorReport.Finish(runErr)

	if cfg.SaveToDB {
		// The run context may already be cancelled; the record is still written.
		if err := saveRun(context.WithoutCancel(ctx), cfg.DBDir, mirrorReport, logger); err != nil {
			logger.Warn("failed to save run history", "error", err)
		}
	}

	if err := outputReport(cfg, mirrorReport, stdout); err != nil {
		if runErr != nil {
			return errors.Join(runErr, err)
		}
		return err
	}

	if runErr != nil {
		return fmt.Errorf("mirror failed: %w", runErr)
	}
	return nil
}

// saveRun records the report in the history database under dbDir.
func saveRun(ctx context.Context, dbDir string, mirrorReport *model.MirrorReport, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, mirrorReport)
	if err != nil {
		return err
	}
	logger.Info("run saved to history", "id", id, "db", db.Path())
	return nil
}

// outputReport writes the run report. Without --output the selected format
// goes to stdout. With --output the selected format goes to the file and the
// text summary to stdout.
func outputReport(cfg *config.Config, mirrorReport *model.MirrorReport, stdout io.Writer) error {
	if cfg.ReportFile == "" {
		_, err := formatWriter(cfg, stdout).Write(mirrorReport)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports list every local path and remote URL of the mirror.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := report.NewMultiWriter(
		report.NewSimpleWriter(stdout),
		formatWriter(cfg, f),
	)
	if _, err := w.Write(mirrorReport); err != nil {
		return err
	}
	return f.Close()
}

// formatWriter selects the report writer for the configured format.
func formatWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}
