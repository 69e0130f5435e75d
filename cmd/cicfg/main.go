package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zonepipe/zonepipe/internal/domain/pipeline"
	"github.com/zonepipe/zonepipe/internal/infrastructure/logging"
	"github.com/zonepipe/zonepipe/internal/infrastructure/persistence"
	"github.com/zonepipe/zonepipe/internal/repl"
)

// Exit codes (§6): 0 success, 1 I/O or internal failure, 2 a validation-coded
// DomainError reached the top level. Errors from REPL commands, including a
// `save` that fails validation, are printed and the session continues, so
// they do not set the exit code.
const (
	exitOK          = 0
	exitIOError     = 1
	exitInvalidSpec = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var pipelineName string
	var storeDir string

	appLogger, err := logging.New(logging.Options{Level: "info", Component: "cicfg", Layer: "infrastructure"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return exitIOError
	}

	rootCmd := &cobra.Command{
		Use:           "cicfg",
		Short:         "Interactively edit and persist a pipeline configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pipelineName == "" {
				return errors.New("-p/--pipeline is required")
			}
			store := persistence.New(storeDir)
			session := repl.New(store, pipelineName, repl.WithLogger(appLogger), repl.WithOutput(cmd.OutOrStdout()))
			return session.Run()
		},
	}

	rootCmd.Flags().StringVarP(&pipelineName, "pipeline", "p", "", "pipeline name to edit")
	rootCmd.Flags().StringVar(&storeDir, "store", "/etc/pipelines", "directory pipeline XML files are persisted under")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var domainErr *pipeline.DomainError
		if errors.As(err, &domainErr) {
			switch domainErr.Code {
			case pipeline.ErrCodeValidation, pipeline.ErrCodeMissing, pipeline.ErrCodeDuplicate, pipeline.ErrCodeDependency, pipeline.ErrCodeCycle, pipeline.ErrCodeUnknownAttr:
				return exitInvalidSpec
			}
		}
		return exitIOError
	}
	return exitOK
}
