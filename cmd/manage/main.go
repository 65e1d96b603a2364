// Command manage runs one-off maintenance tasks against the database:
//
//	manage wait-for-db
//	manage migrate
//	manage create-superuser -email admin@example.com [-password ...] [-name ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/petermazzocco/recipe-api/internal/config"
	"github.com/petermazzocco/recipe-api/internal/database"
	"github.com/petermazzocco/recipe-api/internal/logger"
	"github.com/petermazzocco/recipe-api/internal/store/gormstore"
	"github.com/petermazzocco/recipe-api/internal/users"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-config file] <wait-for-db|migrate|create-superuser> [flags]\n", os.Args[0])
	os.Exit(2)
}

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		log.Fatalf("%s needs the postgres driver, got %q", flag.Arg(0), cfg.Database.Driver)
	}
	level := logger.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)
	ctx := context.Background()

	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "wait-for-db":
		log.Println("Waiting for database...")
		if _, err := database.Connect(ctx, cfg.Database, level); err != nil {
			log.Fatal(err)
		}
		log.Println("Database available!")

	case "migrate":
		db, err := database.Connect(ctx, cfg.Database, level)
		if err != nil {
			log.Fatal(err)
		}
		if err := database.Migrate(db); err != nil {
			log.Fatal(err)
		}
		log.Println("Migrations applied")

	case "create-superuser":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		email := fs.String("email", "", "email address")
		password := fs.String("password", os.Getenv("SUPERUSER_PASSWORD"), "password, defaults to $SUPERUSER_PASSWORD")
		name := fs.String("name", "", "display name")
		fs.Parse(args)

		db, err := database.Connect(ctx, cfg.Database, level)
		if err != nil {
			log.Fatal(err)
		}
		svc := users.NewService(gormstore.NewUserRepo(db))
		u, err := svc.CreateSuperuser(ctx, users.CreateInput{Email: *email, Password: *password, Name: *name})
		if err != nil {
			log.Fatalf("Failed to create superuser: %v", err)
		}
		log.Printf("Superuser %d created", u.ID)

	default:
		usage()
	}
}
