// Package main is a repair tool for dirty migration state. golang-migrate
// marks a version dirty while it runs; a crash mid-migration leaves the flag
// set and the server refuses to start. This tool reads the recorded version
// and, when it is dirty, forces the same version clean so the next startup
// can retry. Pass -version N to force a different version instead.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/policy-auditor/policy-auditor/internal/config"
	"github.com/policy-auditor/policy-auditor/internal/db"
)

func main() {
	target := flag.Int("version", -1, "force this migration version instead of the current one")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.Database.GetDSN(), 2, 1)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("Connected to database successfully")

	version, dirty, err := db.GetMigrationVersion(database)
	if err != nil {
		log.Fatalf("Failed to check migration state: %v", err)
	}
	log.Printf("Current migration state: version=%d, dirty=%v", version, dirty)

	force := int(version)
	if *target >= 0 {
		force = *target
	} else if !dirty {
		log.Println("Migration state is already clean")
		return
	}

	log.Printf("Forcing migration version %d...", force)
	if err := db.ForceVersion(database, force); err != nil {
		log.Fatalf("Failed to fix migration state: %v", err)
	}

	version, dirty, err = db.GetMigrationVersion(database)
	if err != nil {
		log.Fatalf("Failed to check final migration state: %v", err)
	}
	log.Printf("Final migration state: version=%d, dirty=%v", version, dirty)
}
