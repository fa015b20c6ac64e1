// Command clusterprep prepares warehouse exports for the disease cluster
// analysis: it reads params.json and sample.ndJson from the base path and
// writes params.csv, sample.csv and the run's attachments next to them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"clusterprep/internal/app"
	"clusterprep/internal/config"
	"clusterprep/internal/history"
)

var (
	version  = "dev"
	exitFunc = os.Exit
)

const exitUsage = 2

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

// exitError carries a run's exit code through cobra.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func cli(args []string, stdout, stderr io.Writer) int {
	root := rootCmd(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(context.Background())
	if err == nil {
		return app.ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	_, _ = fmt.Fprintf(stderr, "clusterprep: %v\n", err)
	return exitUsage
}

func rootCmd(console io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "clusterprep",
		Short:         "Prepare disease cluster analysis inputs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPipeline(console),
	}
	pf := root.PersistentFlags()
	pf.String("base-path", "", "directory (or key prefix root) holding inputs and outputs")
	pf.String("log-level", "", "execution log level: debug, info, warn, error")
	pf.Bool("log-json", false, "write the execution log as JSON")
	pf.Bool("console", true, "mirror the execution log to stderr")
	pf.String("blob-driver", "", "artifact store: fs, s3 or memory")
	pf.String("history-driver", "", "run ledger: none, sqlite or postgres")
	pf.String("history-dsn", "", "run ledger location")
	pf.Bool("metrics", false, "store Prometheus metrics with the attachments")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the input preparation (same as the root command)",
			Args:  cobra.NoArgs,
			RunE:  runPipeline(console),
		},
		historyCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "clusterprep %s\n", version)
				return err
			},
		},
	)
	return root
}

var (
	stringFlags = map[string]string{
		"base-path":      "base_path",
		"log-level":      "log.level",
		"blob-driver":    "blob.driver",
		"history-driver": "history.driver",
		"history-dsn":    "history.dsn",
	}
	boolFlags = map[string]string{
		"log-json": "log.json",
		"console":  "log.console",
		"metrics":  "metrics.enabled",
	}
)

// loadConfig applies the flags the user set on top of defaults and the
// environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	overrides := make(map[string]any)
	for flag, key := range stringFlags {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		v, err := cmd.Flags().GetString(flag)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
		overrides[key] = v
	}
	for flag, key := range boolFlags {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		v, err := cmd.Flags().GetBool(flag)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", flag, err)
		}
		overrides[key] = v
	}
	return config.Load(overrides)
}

func runPipeline(console io.Writer) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		runner, err := app.New(cmd.Context(), cfg, app.WithConsole(console))
		if err != nil {
			return err
		}
		if res := runner.Run(cmd.Context()); res.ExitCode != app.ExitOK {
			return &exitError{code: res.ExitCode}
		}
		return nil
	}
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the run ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.History.Driver == history.DriverNone {
				return errors.New("run history is disabled; set --history-driver")
			}
			rec, err := history.Open(cmd.Context(), cfg.History.Driver, cfg.HistoryDSN())
			if err != nil {
				return err
			}
			defer func() { _ = rec.Close() }()
			runs, err := rec.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}

func printRuns(w io.Writer, runs []history.Run) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tEXIT\tPROVIDER AREA\tSAMPLES"); err != nil {
		return err
	}
	for _, r := range runs {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\n",
			r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.Status, r.ExitCode, r.ProviderArea, r.Samples); err != nil {
			return err
		}
	}
	return tw.Flush()
}
