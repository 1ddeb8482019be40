// Package main is the knowledge-base seeding tool. It chunks a statute PDF
// (word chunker) or a Markdown document (overlapping character chunker),
// embeds every chunk and appends it to the configured knowledge store, the
// same corpus the audit pipeline retrieves from.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/policy-auditor/policy-auditor/internal/config"
	"github.com/policy-auditor/policy-auditor/internal/db"
	"github.com/policy-auditor/policy-auditor/internal/knowledge"
	"github.com/policy-auditor/policy-auditor/internal/llm"
	"github.com/policy-auditor/policy-auditor/internal/services"
	"github.com/policy-auditor/policy-auditor/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	dryRun     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "ingest",
		Short: "Seed the statute knowledge base from a source document",
		Long: `ingest chunks a source document, embeds each chunk with the configured
embedding model and appends the chunks to the knowledge store.

Chunks whose embedding fails are skipped; a provider rate limit stops the run.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	root.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, "chunk the document and print counts without embedding or storing")

	root.AddCommand(&cobra.Command{
		Use:   "pdf <file>",
		Short: "Ingest a statute PDF using the word chunker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd.OutOrStdout(), opts, services.SourcePDF, args[0])
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "md <file>",
		Short: "Ingest a Markdown document using the overlapping character chunker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd.OutOrStdout(), opts, services.SourceMarkdown, args[0])
		},
	})

	return root
}

func runIngest(ctx context.Context, out io.Writer, opts *options, kind, path string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	telemetry.SetupLogger(cfg.Logging.Format, cfg.Logging.Level)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	filename := filepath.Base(path)

	if opts.dryRun {
		chunks, err := chunk(services.NewIngester(cfg.Ingest, nil, nil), kind, filename, data)
		if err != nil {
			return err
		}
		total := 0
		for _, c := range chunks {
			total += len(c)
		}
		fmt.Fprintf(out, "%s: %d chunks, %d characters (dry run, nothing stored)\n", filename, len(chunks), total)
		return nil
	}

	database, err := db.Connect(cfg.Database.GetDSN(), cfg.Database.MaxConnections, cfg.Database.MinIdleConnections)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	store, err := knowledge.NewStore(&cfg.Knowledge, sqlx.NewDb(database, "postgres"))
	if err != nil {
		return fmt.Errorf("failed to open knowledge store: %w", err)
	}
	if ws, ok := store.(*knowledge.WeaviateStore); ok {
		if err := ws.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	clients, err := llm.NewClients(ctx, &cfg.LLM)
	if err != nil {
		return err
	}
	embedder, err := clients.Embedder()
	if err != nil {
		return err
	}

	ingester := services.NewIngester(cfg.Ingest, embedder, store)
	chunks, err := chunk(ingester, kind, filename, data)
	if err != nil {
		return err
	}
	result, err := ingester.Ingest(ctx, kind, filename, chunks)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, result.Message)
	return nil
}

func chunk(ingester *services.Ingester, kind, filename string, data []byte) ([]string, error) {
	if kind == services.SourcePDF {
		return ingester.ChunkPDF(data)
	}
	return ingester.ChunkMarkdown(filename, data)
}
