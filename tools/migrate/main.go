package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/orgball2608/channel-archiver/internal/migrations"
	"github.com/orgball2608/channel-archiver/pkg/config"
	"github.com/pressly/goose/v3"
)

const usage = "Usage: migrate [up|up-by-one|down|status|version|reset|redo|create <name>]"

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	command := os.Args[1]

	// create only writes a file and needs no database
	if command == "create" {
		if len(os.Args) < 3 {
			log.Fatal("Usage: migrate create <name>")
		}
		createMigration(os.Args[2])
		return
	}

	switch command {
	case "up", "up-by-one", "down", "status", "version", "reset", "redo":
	default:
		log.Fatalf("Unknown command: %s\n%s", command, usage)
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(context.Background(), db, command); err != nil {
		log.Fatalf("Failed to run %s: %v", command, err)
	}
	fmt.Printf("migrate %s: done\n", command)
}

func createMigration(name string) {
	fmt.Printf("Creating migration in: %s\n", migrations.Dir)

	if err := goose.Create(nil, migrations.Dir, name, "go"); err != nil {
		log.Fatalf("Failed to create migration: %v", err)
	}
}
