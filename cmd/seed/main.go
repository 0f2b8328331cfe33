package main

import (
	"context"
	"errors"
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

// Context is handed to every subcommand.
type Context struct {
	Services *server.Services
	Repos    *server.Repositories
}

type CatalogCmd struct{}

func (c *CatalogCmd) Run(ctx *Context) error {
	created, skipped := 0, 0
	for _, item := range service.SeedCatalogItems() {
		err := ctx.Repos.Catalog.Create(context.Background(), item)
		switch {
		case err == nil:
			created++
			fmt.Printf("Created: %s\n", item.Name)
		case errors.Is(err, domain.ErrDuplicateCatalogItem):
			skipped++
			fmt.Printf("Skipping duplicate: %s\n", item.Name)
		default:
			return fmt.Errorf("create %s: %w", item.Name, err)
		}
	}
	fmt.Printf("Catalog seeding complete: %d created, %d already present.\n", created, skipped)
	return nil
}

type ChallengesCmd struct{}

func (c *ChallengesCmd) Run(ctx *Context) error {
	defs, err := ctx.Services.Challenges.EnsureWalkingChallenges(context.Background())
	if err != nil {
		return err
	}
	for _, def := range defs {
		fmt.Printf("Ready: %s (%s, %d days)\n", def.Name, def.Key, def.DurationDays)
	}
	fmt.Println("Challenge seeding complete.")
	return nil
}

var CLI struct {
	MongoURI string `help:"MongoDB connection URI." env:"MONGODB_URI" default:"mongodb://localhost:27017"`
	Database string `help:"Database name." env:"MONGODB_DATABASE" default:"stride"`

	Catalog    CatalogCmd    `cmd:"" help:"Seed the built-in walking workouts into the catalog."`
	Challenges ChallengesCmd `cmd:"" help:"Create or refresh the walking challenge definitions."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("seed"),
		kong.Description("Seed Stride reference data"),
		kong.UsageOnError(),
	)

	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(CLI.MongoURI))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to connect to Mongo: %v\n", err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	cfg := &config.Config{Server: config.ServerConfig{Timezone: "UTC"}}
	repos := server.NewMongoRepositories(client.Database(CLI.Database), nil, 0, nil)
	svc := server.NewServices(server.AppDependencies{Config: cfg, Repositories: repos})

	if err := kctx.Run(&Context{Services: svc, Repos: repos}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
