package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/zonepipe/zonepipe/internal/domain/pipeline"
	"github.com/zonepipe/zonepipe/internal/domain/runset"
	"github.com/zonepipe/zonepipe/internal/infrastructure/dashboard"
	"github.com/zonepipe/zonepipe/internal/infrastructure/engine"
	"github.com/zonepipe/zonepipe/internal/infrastructure/events"
	"github.com/zonepipe/zonepipe/internal/infrastructure/logging"
	"github.com/zonepipe/zonepipe/internal/infrastructure/metrics"
	"github.com/zonepipe/zonepipe/internal/infrastructure/persistence"
	"github.com/zonepipe/zonepipe/internal/infrastructure/processhost"
	"github.com/zonepipe/zonepipe/internal/infrastructure/provisioning/zones"
	"github.com/zonepipe/zonepipe/internal/ports"
)

// Exit codes (§6): 0 every step finished, 1 a step failed, 2 the pipeline
// failed validation or provisioning before any step ran, 3 the run was
// cancelled (ctrl-c, timeout, or a parent process signal).
const (
	exitAllFinished     = 0
	exitStepFailed      = 1
	exitInvalidOrDriver = 2
	exitCancelled       = 3
)

type runFlags struct {
	Pipeline    string `validate:"required"`
	StoreDir    string `validate:"required"`
	Watch       bool
	MetricsAddr string
	Provision   bool
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := &runFlags{}

	appLogger, err := logging.New(logging.Options{Level: "info", Component: "pipelineadm", Layer: "infrastructure"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return exitInvalidOrDriver
	}

	rootCmd := &cobra.Command{
		Use:           "pipelineadm",
		Short:         "Run a persisted pipeline inside a zone",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd.Context(), flags, appLogger)
		},
	}

	rootCmd.Flags().StringVarP(&flags.Pipeline, "pipeline", "p", "", "pipeline name to run")
	rootCmd.Flags().StringVar(&flags.StoreDir, "store", "/etc/pipelines", "directory pipeline XML files are persisted under")
	rootCmd.Flags().BoolVar(&flags.Watch, "watch", false, "show a live dashboard of step status while the run executes")
	rootCmd.Flags().StringVar(&flags.MetricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on, e.g. :9090")
	rootCmd.Flags().BoolVar(&flags.Provision, "provision", true, "clone repos and create a run zone before executing steps")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCodeFor(err)
	}
	return exitAllFinished
}

func execute(ctx context.Context, flags *runFlags, logger ports.Logger) error {
	validate := validator.New()
	if err := validate.Struct(flags); err != nil {
		return &pipeline.DomainError{Code: pipeline.ErrCodeValidation, Message: "invalid flags", Cause: err}
	}

	store := persistence.New(flags.StoreDir)
	validated, err := store.Load(flags.Pipeline)
	if err != nil {
		return err
	}

	set, err := runset.Validate(validated.Steps)
	if err != nil {
		return err
	}

	var metricsCollector ports.MetricsCollector
	if flags.MetricsAddr != "" {
		collector := metrics.New()
		metricsCollector = collector
		go func() {
			server := &http.Server{Addr: flags.MetricsAddr, Handler: collector.Handler()}
			_ = server.ListenAndServe()
		}()
	}

	publisher := events.NewLoggingPublisher(logger.With("component", "event_publisher"))

	base := zones.PipelineZone{Pipeline: flags.Pipeline, Kind: zones.Base}
	driver := zones.New(os.Stdout)
	runID := logging.GenerateCorrelationID()
	runZone := base

	if flags.Provision {
		if err := driver.EnsureBase(ctx, base, validated.Repos, validated.Packages); err != nil {
			return err
		}
		zone, err := driver.ForkRun(ctx, base, runID)
		if err != nil {
			return err
		}
		runZone = zone
		defer func() { _ = driver.Dispose(context.Background(), zone) }()
	}

	sink := logging.NewZerologSink(os.Stdout)
	host := processhost.New()

	if flags.Watch {
		return runWithDashboard(ctx, host, logger, metricsCollector, publisher, sink, flags.Pipeline, runZone.Name(), set)
	}

	eng := engine.New(
		host,
		engine.WithEngineLogger(logger),
		engine.WithEngineMetrics(metricsCollector),
		engine.WithEngineEvents(publisher),
		engine.WithEngineSink(sink),
	)

	report, err := eng.Run(ctx, runZone.Name(), set)
	printReport(report)
	if err != nil {
		return err
	}
	if reportHasFailure(report) {
		return errStepFailed
	}
	return nil
}

// errStepFailed signals a run that completed without cancellation but left
// at least one step Failed. It deliberately isn't a *pipeline.DomainError so
// exitCodeFor's default case maps it to exitStepFailed instead of being
// mistaken for a validation or provisioning failure.
var errStepFailed = errors.New("one or more steps failed")

func reportHasFailure(report ports.RunReport) bool {
	for _, s := range report.Steps {
		if s.Status == "failed" {
			return true
		}
	}
	return false
}

// runWithDashboard runs the engine while a bubbletea dashboard owns the
// terminal's alt-screen. The structured logger writes straight to stdout,
// which would tear through the dashboard's rendering, so engine log lines
// are diverted into a BufferedLogger for the run's duration and replayed
// through the real logger once the dashboard has released the screen.
func runWithDashboard(ctx context.Context, host ports.ProcessHost, logger ports.Logger, metricsCollector ports.MetricsCollector, publisher ports.EventPublisher, sink ports.OutputSink, pipelineName, zone string, set *runset.StepSet) error {
	buffer := logging.NewEventBuffer(0)
	eng := engine.New(
		host,
		engine.WithEngineLogger(logging.NewBufferedLogger(buffer)),
		engine.WithEngineMetrics(metricsCollector),
		engine.WithEngineEvents(publisher),
		engine.WithEngineSink(sink),
	)

	model := dashboard.New(pipelineName, set)
	program := tea.NewProgram(model, tea.WithAltScreen())

	resultCh := make(chan error, 1)
	var report ports.RunReport
	go func() {
		r, err := eng.Run(ctx, zone, set)
		report = r
		resultCh <- err
	}()

	_, programErr := program.Run()
	err := <-resultCh
	buffer.Flush(logger)

	if programErr != nil {
		return pipeline.NewIOError("run dashboard", programErr)
	}
	printReport(report)
	if err != nil {
		return err
	}
	if reportHasFailure(report) {
		return errStepFailed
	}
	return nil
}

func printReport(report ports.RunReport) {
	fmt.Printf("run %s\n", report.RunID)
	for _, s := range report.Steps {
		if s.BlockedBy != "" {
			fmt.Printf("  %-24s %-10s blocked_by=%s\n", s.Name, s.Status, s.BlockedBy)
			continue
		}
		fmt.Printf("  %-24s %-10s exit=%d\n", s.Name, s.Status, s.ExitCode)
	}
}

func exitCodeFor(err error) int {
	var domainErr *pipeline.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Code {
		case pipeline.ErrCodeCancelled:
			return exitCancelled
		case pipeline.ErrCodeValidation, pipeline.ErrCodeMissing, pipeline.ErrCodeDuplicate,
			pipeline.ErrCodeDependency, pipeline.ErrCodeCycle, pipeline.ErrCodeNotFound,
			pipeline.ErrCodeProvisioning, pipeline.ErrCodeIO:
			return exitInvalidOrDriver
		}
	}
	return exitStepFailed
}
