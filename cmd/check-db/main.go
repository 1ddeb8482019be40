// Package main is a diagnostic tool for database connectivity. It connects
// with the server's configuration, reports the schema version, checks the
// pgvector extension and match function, prints row counts and lists admin
// profiles. It exits non-zero on any failure so it can gate deployments in
// CI/CD.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/policy-auditor/policy-auditor/internal/config"
	"github.com/policy-auditor/policy-auditor/internal/db"
	"github.com/policy-auditor/policy-auditor/internal/knowledge"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.Database.GetDSN(), 2, 1)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer database.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	version, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		log.Fatalf("Failed to read migration version: %v", err)
	}
	fmt.Printf("=== SCHEMA ===\nVersion: %d (dirty: %v)\n", version, dirty)

	if cfg.Knowledge.Backend == "pgvector" {
		fmt.Println("\n=== PGVECTOR ===")
		var extVersion string
		err := database.QueryRowContext(ctx,
			"SELECT extversion FROM pg_extension WHERE extname = 'vector'").Scan(&extVersion)
		if err != nil {
			log.Fatalf("vector extension not installed: %v", err)
		}
		fmt.Printf("Extension: vector %s\n", extVersion)

		var fns int
		if err := database.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM pg_proc WHERE proname = 'match_knowledge_chunks'").Scan(&fns); err != nil {
			log.Fatalf("Failed to look up match function: %v", err)
		}
		if fns == 0 {
			log.Fatal("match_knowledge_chunks function is missing; run migrations")
		}
		fmt.Println("Match function: match_knowledge_chunks present")
	}

	fmt.Println("\n=== ROWS ===")
	for _, table := range []string{"profiles", "usage_records", "access_requests"} {
		var n int
		// Table names come from the fixed list above.
		if err := database.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			log.Fatalf("Query on %s failed: %v", table, err)
		}
		fmt.Printf("%-16s %d\n", table, n)
	}

	store, err := knowledge.NewStore(&cfg.Knowledge, sqlx.NewDb(database, "postgres"))
	if err != nil {
		log.Fatalf("Failed to open knowledge store: %v", err)
	}
	if err := store.Ping(ctx); err != nil {
		log.Fatalf("Knowledge store unreachable: %v", err)
	}
	chunks, err := store.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count knowledge chunks: %v", err)
	}
	fmt.Printf("%-16s %d (%s)\n", "knowledge", chunks, cfg.Knowledge.Backend)

	fmt.Println("\n=== ADMINS ===")
	rows, err := database.QueryContext(ctx,
		"SELECT id, email, is_locked FROM profiles WHERE role = 'admin' AND is_deleted = FALSE ORDER BY created_at")
	if err != nil {
		log.Fatalf("Failed to list admin profiles: %v", err)
	}
	defer rows.Close()
	admins := 0
	for rows.Next() {
		var id, email string
		var locked bool
		if err := rows.Scan(&id, &email, &locked); err != nil {
			log.Fatalf("Failed to scan admin profile: %v", err)
		}
		admins++
		fmt.Printf("%s  %s  locked=%v\n", id, email, locked)
	}
	if err := rows.Err(); err != nil {
		log.Fatalf("Failed to list admin profiles: %v", err)
	}
	if admins == 0 {
		fmt.Println("No admin profiles! Provision one before using /admin routes.")
	}

	if chunks == 0 {
		fmt.Println("\nKnowledge corpus is empty! Audits will run without legal context.")
	}
}
