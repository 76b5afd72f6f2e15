package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/devagent/orchestrator/internal/auth"
	"github.com/devagent/orchestrator/internal/config"
	"github.com/devagent/orchestrator/internal/db"
	"github.com/devagent/orchestrator/internal/model"
	"github.com/devagent/orchestrator/internal/queue"
	"github.com/devagent/orchestrator/internal/worker"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			conn, dialect, err := db.Open(cmd.Context(), db.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN})
			if err != nil {
				return err
			}
			defer conn.Close()
			n, err := db.Migrate(cmd.Context(), conn, dialect)
			if err != nil {
				return err
			}
			fmt.Printf("applied %d migration(s)\n", n)
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	var (
		minAge time.Duration
		batch  int
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Re-enqueue draft contracts that never reached a worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if !cmd.Flags().Changed("min-age") {
				minAge = a.cfg.Sweep.MinAge
			}
			if !cmd.Flags().Changed("batch") {
				batch = a.cfg.Sweep.Batch
			}
			n, err := a.orchestrator.RequeueStaleDrafts(cmd.Context(), minAge, batch)
			if err != nil {
				return err
			}
			fmt.Printf("re-enqueued %d contract(s)\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&minAge, "min-age", 5*time.Minute, "only drafts untouched for at least this long")
	cmd.Flags().IntVar(&batch, "batch", 100, "maximum contracts per run")
	return cmd
}

func dlqCmd(jsonOut *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Inspect dispatch messages the queue gave up on",
	}
	var size int
	list := &cobra.Command{
		Use:   "list",
		Short: "List archived dispatch messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			inspector := asynq.NewInspector(worker.RedisOpt(cfg.Redis))
			defer inspector.Close()

			letters, err := queue.NewDeadLetters(inspector, cfg.Queue.Name).List(size)
			if err != nil {
				return err
			}
			if *jsonOut {
				return printJSON(letters)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Task", "Contract", "Agent", "Retried", "Failed At", "Last Error"})
			for _, dl := range letters {
				tw.AppendRow(table.Row{dl.TaskID, dl.ContractID, dl.Agent,
					strconv.Itoa(dl.Retried) + "/" + strconv.Itoa(dl.MaxRetry), dl.LastFailedAt, truncate(dl.LastError, 60)})
			}
			tw.Render()
			return nil
		},
	}
	list.Flags().IntVar(&size, "limit", 50, "maximum messages to show")
	cmd.AddCommand(list)
	return cmd
}

func contractsCmd(jsonOut *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contracts",
		Short: "Operate on task contracts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "resubmit <contract-id>",
		Short: "Move a failed contract back to draft and enqueue it again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			c, err := a.orchestrator.UpdateContractStatus(cmd.Context(), args[0], model.ContractStatusDraft)
			if err != nil {
				return err
			}
			if *jsonOut {
				return printJSON(c)
			}
			fmt.Printf("contract %s resubmitted (attempts so far: %d)\n", c.ID, c.Attempts)
			return nil
		},
	})
	return cmd
}

func pipelineCmd(jsonOut *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Inspect pipelines",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <pipeline-id>",
		Short: "Show a pipeline with its stages and contracts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			detail, err := a.orchestrator.GetPipelineDetail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if *jsonOut {
				return printJSON(detail)
			}

			fmt.Printf("Pipeline %s (project %s): %s\n", detail.Pipeline.ID, detail.Pipeline.ProjectID, detail.Pipeline.Status)
			stages := table.NewWriter()
			stages.SetOutputMirror(os.Stdout)
			stages.AppendHeader(table.Row{"#", "Stage", "Status", "Started", "Completed"})
			for _, s := range detail.Stages {
				stages.AppendRow(table.Row{s.Position, s.Name, s.Status, formatTime(s.StartedAt), formatTime(s.CompletedAt)})
			}
			stages.Render()

			contracts := table.NewWriter()
			contracts.SetOutputMirror(os.Stdout)
			contracts.AppendHeader(table.Row{"Contract", "Agent", "Status", "Attempts", "Reviews", "Objective"})
			for _, c := range detail.Contracts {
				contracts.AppendRow(table.Row{c.ID, c.Agent, c.Status, c.Attempts, len(c.Reviews), truncate(c.Objective, 50)})
			}
			contracts.Render()
			return nil
		},
	})
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		email string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an HMAC bearer token for local development",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("ttl") && cfg.JWT.Expiration > 0 {
				ttl = time.Duration(cfg.JWT.Expiration) * time.Hour
			}
			tok, err := auth.IssueLegacyToken(cfg.JWT.Secret, args[0], email, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
