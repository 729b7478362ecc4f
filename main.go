package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/openclaw/qrcodemaker/api"
	"github.com/openclaw/qrcodemaker/config"
	"github.com/openclaw/qrcodemaker/generate"
	"github.com/openclaw/qrcodemaker/notify"
	"github.com/openclaw/qrcodemaker/qr"
	"github.com/openclaw/qrcodemaker/records"
	"github.com/openclaw/qrcodemaker/store"
)

var version = "v1.0.0"

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	debug      bool
	dryRun     bool
	lang       string
	leading    string // archfile only
}

// imageFlags are shared by the three generation commands.
type imageFlags struct {
	source string
	output string
	format string
	size   int
}

func (f *imageFlags) register(cmd *cobra.Command, sourceHelp, outputHelp string) {
	cmd.Flags().StringVarP(&f.source, "source", "s", "", sourceHelp)
	cmd.Flags().StringVarP(&f.output, "output", "o", "", outputHelp)
	cmd.Flags().StringVarP(&f.format, "type", "t", "", "Image format: jpg, png, gif or bmp (default from config)")
	cmd.Flags().IntVarP(&f.size, "dimension", "d", 0, "Image size in pixels, 10-4800 (default from config)")
}

func main() {
	var g globalFlags
	root := &cobra.Command{
		Use:           "qrcodemaker",
		Short:         "Generate QR-code images from text, text files and archive files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "config.yaml", "Path to config file")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "Trace every text and record")
	root.PersistentFlags().BoolVar(&g.dryRun, "dry-run", false, "Parse and validate without writing images")
	root.PersistentFlags().StringVar(&g.lang, "lang", "", "Message language: en or it (default from config)")

	// --- string command ------------------------------------------------------
	var strFlags imageFlags
	stringCmd := &cobra.Command{
		Use:   "string",
		Short: "Encode a text given on the command line",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runString(g, strFlags)
		},
	}
	strFlags.register(stringCmd, "Text to encode", "Output image path (extension added if missing)")
	stringCmd.MarkFlagRequired("source")
	stringCmd.MarkFlagRequired("output")
	root.AddCommand(stringCmd)

	// --- textfile command ----------------------------------------------------
	var fileFlags imageFlags
	textfileCmd := &cobra.Command{
		Use:   "textfile",
		Short: "Encode the whole content of a text file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTextFile(g, fileFlags)
		},
	}
	fileFlags.register(textfileCmd, "Text file to encode", "Output image path (extension added if missing)")
	textfileCmd.MarkFlagRequired("source")
	textfileCmd.MarkFlagRequired("output")
	root.AddCommand(textfileCmd)

	// --- archfile command ----------------------------------------------------
	var archFlags imageFlags
	var header, leading string
	archfileCmd := &cobra.Command{
		Use:   "archfile",
		Short: "Encode one image per line of an archive file (<text>[|<filename>])",
		RunE: func(cmd *cobra.Command, args []string) error {
			var h *string
			if cmd.Flags().Changed("header") {
				h = &header
			}
			return runArchFile(g, archFlags, h, leading)
		},
	}
	archFlags.register(archfileCmd, "Archive file, one record per line", "Output folder (default from config)")
	archfileCmd.Flags().StringVar(&header, "header", "", "Prefix added to every record text (default from config)")
	archfileCmd.Flags().StringVar(&leading, "leading-separator", "", "Lines starting with '|': drop or empty (default from config)")
	archfileCmd.MarkFlagRequired("source")
	root.AddCommand(archfileCmd)

	// --- serve command -------------------------------------------------------
	var port int
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the generator over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(g, port)
		},
	}
	serveCmd.Flags().IntVar(&port, "port", 0, "HTTP port (default from config)")
	root.AddCommand(serveCmd)

	// --- history command -----------------------------------------------------
	var limit int
	historyCmd := &cobra.Command{
		Use:   "history [job-id]",
		Short: "List past generation jobs or show one job's records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(g, limit, args)
		},
	}
	historyCmd.Flags().IntVar(&limit, "limit", 20, "Number of jobs to list")
	root.AddCommand(historyCmd)

	// --- version command -----------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("qrcodemaker %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app is the wired set of components for one command run.
type app struct {
	cfg  *config.Config
	log  *slog.Logger
	gen  *generate.Generator
	jobs *store.JobStore
}

// setup loads config, applies the global flags and wires all components.
// Logs go to logOut.
func setup(g globalFlags, logOut io.Writer) (*app, error) {
	// 1. Load config
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.debug {
		cfg.Debug = true
	}
	if g.dryRun {
		cfg.DryRun = true
	}
	if g.lang != "" {
		cfg.Language = g.lang
	}
	if g.leading != "" {
		cfg.LeadingSeparator = g.leading
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 2. Setup logger
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("ensure data dir: %w", err)
	}

	// 3. Open job history
	a := &app{cfg: cfg, log: log}
	if cfg.History {
		jobs, err := store.NewJobStore(cfg.HistoryPath())
		if err != nil {
			log.Warn("job history unavailable", "path", cfg.HistoryPath(), "error", err)
		} else {
			a.jobs = jobs
		}
	}

	// 4. Create encoder and generator
	level, _ := qr.ParseRecoveryLevel(cfg.RecoveryLevel)
	policy, _ := records.ParsePolicy(cfg.LeadingSeparator)
	opts := generate.Options{
		Debug:            cfg.Debug,
		DryRun:           cfg.DryRun,
		LeadingSeparator: policy,
	}
	if a.jobs != nil {
		opts.Recorder = a.jobs
	}
	if cfg.WebhookURL != "" {
		opts.Notifier = notify.NewWebhookSender(cfg.WebhookURL, cfg.WebhookTimeout.Duration, log)
	}
	a.gen = generate.New(qr.NewEngine(level), log, opts)

	return a, nil
}

func (a *app) Close() {
	if a.jobs != nil {
		a.jobs.Close()
	}
}

// imageParams resolves format and size from flags, falling back to config.
func (a *app) imageParams(f imageFlags) (qr.Format, int, error) {
	name := f.format
	if name == "" {
		name = a.cfg.Format
	}
	format, err := qr.ParseFormat(name)
	if err != nil {
		return "", 0, err
	}
	size := f.size
	if size == 0 {
		size = a.cfg.Size
	}
	if err := qr.ValidateSize(size); err != nil {
		return "", 0, err
	}
	return format, size, nil
}

// report prints the outcome message and turns a failure into the command
// error.
func (a *app) report(err error, detail string) error {
	msg := generate.Message(err, a.cfg.Language)
	if err != nil {
		return fmt.Errorf("%s (%w)", msg, err)
	}
	if detail != "" {
		msg += " " + detail
	}
	fmt.Println(msg)
	return nil
}

// runString encodes inline text.
func runString(g globalFlags, f imageFlags) error {
	a, err := setup(g, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	format, size, err := a.imageParams(f)
	if err != nil {
		return err
	}
	return a.report(a.gen.InlineText(f.source, f.output, format, size), "")
}

// runTextFile encodes the content of a single text file.
func runTextFile(g globalFlags, f imageFlags) error {
	a, err := setup(g, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	format, size, err := a.imageParams(f)
	if err != nil {
		return err
	}
	return a.report(a.gen.SingleFile(f.source, f.output, format, size), "")
}

// runArchFile encodes every record of an archive file. A nil header means
// the configured header is used.
func runArchFile(g globalFlags, f imageFlags, header *string, leading string) error {
	g.leading = leading
	a, err := setup(g, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	format, size, err := a.imageParams(f)
	if err != nil {
		return err
	}
	folder := f.output
	if folder == "" {
		folder = a.cfg.OutputDir
	}
	h := a.cfg.Header
	if header != nil {
		h = *header
	}

	report, err := a.gen.ArchiveFile(f.source, folder, h, format, size)
	detail := fmt.Sprintf("(%d images in %s, %d skipped)", report.Succeeded, folder, report.Skipped)
	return a.report(err, detail)
}

// runServe is the HTTP service entrypoint.
func runServe(g globalFlags, port int) error {
	a, err := setup(g, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	if port == 0 {
		port = a.cfg.Port
	}
	format, _ := qr.ParseFormat(a.cfg.Format)

	a.log.Info("starting qrcodemaker", "version", version, "port", port, "output_dir", a.cfg.OutputDir)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", port),
		Handler: api.NewRouter(&api.Server{
			Generator: a.gen,
			Store:     a.jobs,
			OutputDir: a.cfg.OutputDir,
			Defaults:  api.Defaults{Format: format, Size: a.cfg.Size, Header: a.cfg.Header},
			Language:  a.cfg.Language,
			Log:       a.log,
			Version:   version,
			StartTime: time.Now(),
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	}

	a.log.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("HTTP server shutdown error", "error", err)
	}

	a.log.Info("goodbye")
	return nil
}

// runHistory lists recent jobs, or the records of one job.
func runHistory(g globalFlags, limit int, args []string) error {
	a, err := setup(g, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.jobs == nil {
		return errors.New("job history is disabled or unavailable")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if len(args) == 1 {
		job, err := a.jobs.GetJob(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "JOB\t%s\t%s\t%s\n", job.ID, job.Mode, job.Code)
		fmt.Fprintln(w, "LINE\tSTATUS\tCODE\tFILENAME\tERROR")
		for _, r := range job.Records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.Line, r.Status, r.Code, r.Filename, r.Error)
		}
		return nil
	}

	jobs, err := a.jobs.GetJobs(limit, 0)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "ID\tWHEN\tMODE\tCODE\tOK\tFAILED\tSKIPPED\tTARGET")
	for _, j := range jobs {
		when := time.UnixMilli(j.CreatedAt).Format(time.DateTime)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			j.ID, when, j.Mode, j.Code, j.Succeeded, j.Failed, j.Skipped, j.Target)
	}
	return nil
}
