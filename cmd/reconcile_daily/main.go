package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mansoorceksport/stride/internal/config"
	"github.com/mansoorceksport/stride/internal/domain"
	"github.com/mansoorceksport/stride/internal/server"
	"github.com/mansoorceksport/stride/internal/service"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var CLI struct {
	MongoURI string `help:"MongoDB connection URI." env:"MONGODB_URI" default:"mongodb://localhost:27017"`
	Database string `help:"Database name." env:"MONGODB_DATABASE" default:"stride"`
	Timezone string `help:"Timezone used for day boundaries." env:"APP_TIMEZONE" default:"UTC"`
	Date     string `help:"Day to check (YYYY-MM-DD). Defaults to today."`
	DryRun   bool   `help:"Report dangling records without repairing them."`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("reconcile_daily"),
		kong.Description("Repair daily workouts whose catalog item no longer exists"),
		kong.UsageOnError(),
	)
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if _, err := time.LoadLocation(CLI.Timezone); err != nil {
		return fmt.Errorf("invalid --timezone: %w", err)
	}
	cfg := &config.Config{Server: config.ServerConfig{Timezone: CLI.Timezone}}
	clock := domain.NewSystemClock(cfg.Location())

	day := domain.Today(clock)
	if CLI.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", CLI.Date, cfg.Location())
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		day = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(CLI.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to Mongo: %w", err)
	}
	defer client.Disconnect(context.Background())

	svc := server.NewServices(server.AppDependencies{
		Config:       cfg,
		Repositories: server.NewMongoRepositories(client.Database(CLI.Database), nil, 0, clock),
		Clock:        clock,
	})

	if CLI.DryRun {
		fmt.Println("DRY RUN - no changes will be made")
	}
	fmt.Printf("Checking daily workouts for %s\n", day.Format("2006-01-02"))

	counts, err := svc.Resolver.ReconcileDay(ctx, day, CLI.DryRun)
	if err != nil {
		return err
	}
	for _, outcome := range []service.ReconcileOutcome{
		service.ReconcileHealthy,
		service.ReconcileRepaired,
		service.ReconcileWouldRepair,
		service.ReconcileUnrepairable,
	} {
		fmt.Printf("  %-13s %d\n", outcome, counts[outcome])
	}
	return nil
}

