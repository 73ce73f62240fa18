package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/urfave/cli/v2"

	"github.com/glizzus/daeha/internal/config"
	"github.com/glizzus/daeha/internal/datalayer"
	"github.com/glizzus/daeha/internal/media"
	"github.com/glizzus/daeha/internal/repository"
)

func loadEnv() {
	if err := config.LoadEnv(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to load .env file: %v", err)
	}
}

func main() {
	loadEnv()

	app := &cli.App{
		Name:        "daeha-cli",
		Description: "A development CLI tool for testing daeha without Discord",
		Commands: []*cli.Command{
			{
				Name:  "resolve",
				Usage: "Resolve a search query or YouTube link the way the play command does",
				Action: func(c *cli.Context) error {
					resolver := media.NewYouTubeResolver(&youtube.Client{})

					track, err := resolver.Resolve(c.Context, c.String("query"))
					if err != nil {
						return cli.Exit("Failed to resolve query: "+err.Error(), 1)
					}

					fmt.Printf("%s\n%s\n", track.Title, track.URL)
					return nil
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Usage:    "Search keywords or a YouTube link",
						Required: true,
					},
				},
			},
			{
				Name:  "history",
				Usage: "List the most recent plays for a specific guild",
				Action: func(c *cli.Context) error {
					postgresConfig, err := config.NewPostgresConfigFromEnv()
					if err != nil {
						return cli.Exit("Failed to load postgres config: "+err.Error(), 1)
					}

					pool, err := datalayer.NewPostgresPool(c.Context, postgresConfig.DSN())
					if err != nil {
						return cli.Exit(err.Error(), 1)
					}
					defer pool.Close()

					if err := datalayer.MigratePostgres(pool); err != nil {
						return cli.Exit("Failed to migrate postgres: "+err.Error(), 1)
					}

					repo := repository.NewPostgresPlayHistoryRepository(pool)
					plays, err := repo.List(c.Context, c.String("guild-id"), c.Int("limit"))
					if err != nil {
						return cli.Exit("Failed to retrieve plays: "+err.Error(), 1)
					}

					if len(plays) == 0 {
						log.Println("No plays found for the specified guild.")
						return nil
					}

					for _, play := range plays {
						fmt.Printf("%s  %s  %s\n", play.PlayedAt.Local().Format(time.DateTime), play.Title, play.URL)
					}
					return nil
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "guild-id",
						Usage:    "ID of the guild to list plays for",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of plays to list",
						Value: 20,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Error running CLI: %v", err)
	}
}
