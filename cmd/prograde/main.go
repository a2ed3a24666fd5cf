// Command prograde grades group projects kept in per-project repositories.
//
// Usage:
//
//	prograde [flags] <action> [flags]
//
// Run with -h to list actions and flags. Every flag may also be set from
// the environment with the PROGRADE_ prefix, e.g. PROGRADE_CONFIG.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/labstack/gommon/log"
	"github.com/peterbourgon/ff/v3"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-prograde/infrastructure/metrics"
	"github.com/ahrav/go-prograde/infrastructure/middleware"
	"github.com/ahrav/go-prograde/infrastructure/notebook"
	"github.com/ahrav/go-prograde/infrastructure/repos"
	"github.com/ahrav/go-prograde/infrastructure/roster"
	"github.com/ahrav/go-prograde/infrastructure/schema"
	"github.com/ahrav/go-prograde/infrastructure/scoring"
	"github.com/ahrav/go-prograde/internal/application"
	"github.com/ahrav/go-prograde/internal/domain"
	"github.com/ahrav/go-prograde/internal/ports"
)

// actions lists the accepted actions in help order.
var actions = []string{
	"check",
	"report",
	"make-repos",
	"pull-repos",
	"add-submodules",
	"cmd-in-repos",
	"write-gitignore",
	"write-marks",
	"write-project-list",
	"write-feedback",
	"export-marks",
}

type options struct {
	action          string
	config          string
	repoCmd         string
	noCheck         bool
	rebase          bool
	allowMissing    bool
	feedbackOutPath string
	logLevel        string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "prograde: %v\n", err)
		os.Exit(1)
	}
}

// parseArgs reads flags from args and the environment. Flags may appear
// before or after the action.
func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("prograde", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.config, "config", application.DefaultConfigPath, "YAML configuration for the course")
	fs.StringVar(&opts.repoCmd, "repo-cmd", "", "command to run in each repository (cmd-in-repos action)")
	fs.BoolVar(&opts.noCheck, "no-check", false, "carry on when a repository command fails")
	fs.BoolVar(&opts.rebase, "rebase", false, "rebase on git pull, then push")
	fs.BoolVar(&opts.allowMissing, "allow-missing", false, "skip projects without marks instead of failing")
	fs.StringVar(&opts.feedbackOutPath, "feedback-out-path", "feedback", "directory to write feedback into")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error or off")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: prograde [flags] <action>\n\nActions: %s\n\nFlags:\n", strings.Join(actions, ", "))
		fs.PrintDefaults()
	}

	if err := ff.Parse(fs, args, ff.WithEnvVarPrefix("PROGRADE")); err != nil {
		return opts, err
	}
	rest := fs.Args()
	for len(rest) > 0 {
		if opts.action != "" {
			return opts, fmt.Errorf("unexpected argument %q", rest[0])
		}
		opts.action = rest[0]
		if err := fs.Parse(rest[1:]); err != nil {
			return opts, err
		}
		rest = fs.Args()
	}

	if opts.action == "" {
		fs.Usage()
		return opts, domain.NewConfigError("action", "no action given")
	}
	if !slices.Contains(actions, opts.action) {
		return opts, domain.NewConfigError("action",
			fmt.Sprintf("unknown action %q; should be one of %s", opts.action, strings.Join(actions, ", ")))
	}
	return opts, nil
}

func newLogger(level string, w io.Writer) (*log.Logger, error) {
	logger := log.New("prograde")
	logger.SetOutput(w)
	logger.SetHeader("${time_rfc3339} ${level}")
	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(log.DEBUG)
	case "info", "":
		logger.SetLevel(log.INFO)
	case "warn":
		logger.SetLevel(log.WARN)
	case "error":
		logger.SetLevel(log.ERROR)
	case "off":
		logger.SetLevel(log.OFF)
	default:
		return nil, domain.NewConfigError("log-level", fmt.Sprintf("unknown level %q", level))
	}
	return logger, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}
	logger, err := newLogger(opts.logLevel, stderr)
	if err != nil {
		return err
	}

	loader, err := application.NewConfigLoader()
	if err != nil {
		return err
	}
	cfg, err := loader.LoadFromFile(opts.config)
	if err != nil {
		return fmt.Errorf("config %s: %w", opts.config, err)
	}

	if isRepoAction(opts.action) {
		return runRepoAction(ctx, opts, cfg, logger, stdout, stderr)
	}

	var (
		collector ports.MetricsCollector = metrics.Nop{}
		prom      *metrics.PrometheusMetrics
	)
	if cfg.MetricsTextfile != "" {
		prom = metrics.NewPrometheusMetrics()
		collector = prom
	}

	agg, err := scoring.NewArithmeticMean(scoring.ArithmeticMeanConfig{
		RoundFinal: cfg.RoundFinal,
		Rounding:   scoring.Rounding(cfg.Rounding),
	})
	if err != nil {
		return err
	}
	grader := application.NewGrader(
		cfg,
		roster.NewCSVSource(cfg.RosterPath, cfg.StudentIDCol, cfg.Missing),
		middleware.NewTracingLocator(notebook.NewLocator(logger), collector),
		schema.NewValidator(schema.DefaultHintThreshold),
		agg,
		application.WithLogger(logger),
		application.WithMetrics(collector),
		application.WithOutput(stdout),
	)

	switch opts.action {
	case "check":
		_, err = grader.Check(ctx, application.MissingFile)
	case "report":
		err = grader.Report(ctx)
	case "write-project-list":
		err = grader.WriteProjectList(ctx, application.ProjectListFile)
	case "write-marks":
		var path string
		if path, err = grader.WriteMarks(ctx, opts.allowMissing); err == nil {
			logger.Infof("wrote %s", path)
		}
	case "export-marks":
		var path string
		if path, err = grader.ExportMarks(ctx, opts.allowMissing); err == nil {
			logger.Infof("wrote %s", path)
		}
	case "write-feedback":
		var dirs []string
		if dirs, err = grader.WriteFeedback(ctx, opts.feedbackOutPath); err == nil {
			logger.Infof("wrote feedback for %d students to %s", len(dirs), opts.feedbackOutPath)
		}
	}
	if err != nil {
		return err
	}

	if prom != nil {
		if err := prom.WriteTextfile(cfg.MetricsTextfile); err != nil {
			return err
		}
	}
	return nil
}

func isRepoAction(action string) bool {
	switch action {
	case "make-repos", "pull-repos", "add-submodules", "cmd-in-repos", "write-gitignore":
		return true
	}
	return false
}

func runRepoAction(
	ctx context.Context,
	opts options,
	cfg *application.Config,
	logger *log.Logger,
	stdout, stderr io.Writer,
) error {
	limit := rate.Inf
	if cfg.Git.OpsPerSecond > 0 {
		limit = rate.Limit(cfg.Git.OpsPerSecond)
	}
	runner := repos.NewExecRunner(stdout, stderr, limit, cfg.Git.Burst)
	m := repos.NewManager(runner, repos.ManagerConfig{
		Root:   cfg.ProjectsPath,
		OrgURL: cfg.ProjectsURL,
		Strict: !opts.noCheck,
	}, logger)

	names := cfg.Projects.Names()
	switch opts.action {
	case "make-repos":
		return m.MakeRepos(ctx, names)
	case "pull-repos":
		return m.PullRepos(ctx, names, opts.rebase, opts.rebase)
	case "add-submodules":
		return m.AddSubmodules(ctx, names)
	case "cmd-in-repos":
		return m.CmdInRepos(ctx, names, opts.repoCmd)
	case "write-gitignore":
		return m.WriteGitignore(ctx, names)
	}
	return domain.NewConfigError("action", fmt.Sprintf("unknown repository action %q", opts.action))
}
