// Command devagent runs the pipeline orchestration API, the agent worker
// pool and the operator tooling around them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var version = "dev"

// @title          devagent orchestrator API
// @version        1.0
// @description    Pipelines, stages and agent task contracts for the devagent orchestrator.
// @host           localhost:8000
// @BasePath       /
// @schemes        http https
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
// @description    Enter your bearer token in the format **Bearer &lt;token&gt;**
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var jsonOut bool
	root := &cobra.Command{
		Use:   "devagent",
		Short: "Pipeline orchestration for AI development agents",
		Long: `devagent drives projects through pipelines of stages and dispatches task
contracts to role-specific agents through a Redis-backed queue.

Configuration is read from config.yaml in the working directory and from
environment variables such as DATABASE_DSN, REDIS_ADDR and GROQ_API_KEY.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "print JSON instead of tables")

	root.AddCommand(
		serveCmd(),
		workerCmd(),
		migrateCmd(),
		sweepCmd(),
		dlqCmd(&jsonOut),
		contractsCmd(&jsonOut),
		pipelineCmd(&jsonOut),
		tokenCmd(),
	)
	return root
}
