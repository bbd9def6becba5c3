// Command seed populates the database with demo data from an embedded preset.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"atelier/internal/config"
	"atelier/internal/database"
	"atelier/internal/middleware"
	"atelier/internal/seed"
)

func main() {
	preset := flag.String("preset", "demo", "Seed preset to apply ("+strings.Join(seed.PresetNames(), ", ")+")")
	clean := flag.Bool("clean", false, "Delete existing rows before seeding")
	seedValue := flag.Int64("seed", 0, "Random seed; 0 picks one")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.ConfigureLogger(cfg.Env, cfg.LogLevel)

	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	p, err := seed.LoadPreset(*preset)
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sum, err := seed.NewSeeder(db, seed.Options{Seed: *seedValue, Clean: *clean}).Run(context.Background(), p)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	out, _ := json.MarshalIndent(sum, "", "  ")
	fmt.Fprintln(os.Stdout, string(out))
	fmt.Fprintf(os.Stdout, "Fixed accounts use the password from preset %q: %s\n", p.Name, p.Password)
}
