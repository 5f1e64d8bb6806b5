package main

import (
	"context"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
	_ "github.com/yaegashi/botpressops/adapters/drivers/provider/aks"
	_ "github.com/yaegashi/botpressops/adapters/drivers/provider/k3s"
	"github.com/yaegashi/botpressops/internal/logging"
)

const (
	envConfig    = "BOTPRESSOPS_CONFIG"
	envStateURL  = "BOTPRESSOPS_STATE_URL"
	envLogFormat = "BOTPRESSOPS_LOG_FORMAT"
	envLogLevel  = "BOTPRESSOPS_LOG_LEVEL"
	envLogOutput = "BOTPRESSOPS_LOG_OUTPUT"

	defaultConfigPath = "botpressops.yml"
	defaultStateURL   = "sqlite:./.botpressops/state.db"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd() *cobra.Command {
	var logOutput *logging.Output
	cmd := &cobra.Command{
		Use:     "botpressops",
		Short:   "Botpress deployment CLI",
		Long:    "Deploys Botpress with its language server, ingress and optional managed PostgreSQL.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringP("config", "f", envOr(envConfig, defaultConfigPath), "Path to botpressops.yml (env "+envConfig+")")
	pf.String("state-url", envOr(envStateURL, defaultStateURL), "State store URL (sqlite:<path> | mem:) (env "+envStateURL+")")
	pf.String("log-format", "human", "Log format (human|text|json) (env "+envLogFormat+")")
	pf.String("log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR) (env "+envLogLevel+")")
	pf.String("log-output", "-", "Log destination (- | none | file | dir/) (env "+envLogOutput+")")

	cmd.PersistentPreRunE = func(c *cobra.Command, _ []string) error {
		quietKlog()

		format, _ := c.Flags().GetString("log-format")
		levelName, _ := c.Flags().GetString("log-level")
		outSpec, _ := c.Flags().GetString("log-output")
		format = envOr(envLogFormat, format)
		levelName = envOr(envLogLevel, levelName)
		outSpec = envOr(envLogOutput, outSpec)

		level, err := logging.ParseLevel(levelName)
		if err != nil {
			return err
		}
		now := time.Now()
		out, err := logging.OpenOutput(outSpec, now)
		if err != nil {
			return err
		}
		logOutput = out
		l, err := logging.NewWithWriter(format, level, out.Writer())
		if err != nil {
			return err
		}
		runID := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
		ctx := logging.WithLogger(c.Context(), l.With("runId", runID))
		c.SetContext(ctx)
		return nil
	}
	cmd.PersistentPostRunE = func(c *cobra.Command, _ []string) error {
		if logOutput != nil {
			return logOutput.Close()
		}
		return nil
	}

	cmd.AddCommand(newCmdVersion())
	cmd.AddCommand(newCmdConfig())
	cmd.AddCommand(newCmdUp())
	cmd.AddCommand(newCmdPreview())
	cmd.AddCommand(newCmdDestroy())
	cmd.AddCommand(newCmdOutput())
	return cmd
}

func main() {
	root := newRootCmd()
	root.SetContext(context.Background())
	executed, err := root.ExecuteC()
	if err != nil {
		ctx := root.Context()
		if executed != nil {
			ctx = executed.Context()
		}
		logging.FromContext(ctx).Errorf(ctx, "Failed: %s", err)
		os.Exit(1)
	}
}
