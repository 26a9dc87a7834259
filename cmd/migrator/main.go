// cmd/migrator/main.go
package main

import (
	"flag"
	"fmt"
	"os"

	"ledger-bank/internal/config"
	"ledger-bank/pkg/db"
)

func main() {
	var direction string

	flag.StringVar(&direction, "direction", string(db.DirectionUp), "migration direction: up or down")
	flag.Parse()

	// Connection settings come from the same DB_* variables the API reads.
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	applied, err := db.Migrate(cfg.DB, db.Direction(direction))
	if err != nil {
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	if !applied {
		fmt.Println("no migrations to apply")
		return
	}

	fmt.Printf("migrations applied successfully (%s)\n", direction)
}
