// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/graphrag"
	"github.com/poiesic/graphrag/config"
	"github.com/poiesic/graphrag/ingestion"
	"github.com/poiesic/graphrag/storage"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "graphrag",
		Usage: "Hybrid retrieval over document embeddings and a knowledge graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest documents into the vector and graph stores",
				ArgsUsage: "FILE [FILE...]",
				Action:    ingestCommand,
			},
			{
				Name:      "search",
				Usage:     "Answer a question with hybrid retrieval",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of vector matches to retrieve",
					},
				},
			},
			{
				Name:      "sqlsearch",
				Usage:     "Find stored SQL queries similar to a question",
				ArgsUsage: "QUESTION",
				Action:    sqlSearchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "type",
						Usage: "Restrict to a query type (SELECT, INSERT, ...)",
					},
					&cli.StringSliceFlag{
						Name:  "table",
						Usage: "Restrict to queries touching this table (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "include-inactive",
						Usage: "Include superseded query versions",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum results",
						Value: 5,
					},
				},
			},
			{
				Name:   "reset",
				Usage:  "Wipe the vector corpus and the knowledge graph",
				Action: resetCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
			},
			{
				Name:   "health",
				Usage:  "Check connectivity to Postgres and Neo4j",
				Action: healthCommand,
			},
			{
				Name:   "stats",
				Usage:  "Show corpus statistics",
				Action: statsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newSystem(c *cli.Context) (*graphrag.System, error) {
	return graphrag.New(c.Context, config.Load())
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	system, err := newSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	progress := func(event ingestion.Event) {
		switch {
		case event.Err != nil:
			fmt.Printf("  batch at chunk %d failed: %v\n", event.BatchIndex, event.Err)
		case event.BatchCompleted:
			fmt.Printf("  batch done: %d chunks in %.2fs (%.1f chunks/s)\n",
				event.BatchSize, event.Duration.Seconds(), event.ChunksPerSecond)
		default:
			fmt.Printf("%s: batch %d/%d (%d/%d chunks)\n",
				event.File, event.CurrentBatch, event.TotalBatches,
				event.ChunksProcessed, event.TotalChunks)
		}
	}

	return system.Ingest(c.Context, c.Args().Slice(), progress)
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	system, err := newSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	result, err := system.Search(c.Context, query, c.Int("top-k"))
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)
	fmt.Printf("\nsources: %d vector, %d graph; entities: %s\n",
		result.VectorCount, result.GraphCount, strings.Join(result.Entities, ", "))
	return nil
}

func sqlSearchCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	system, err := newSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	results, err := system.SearchQueries(c.Context, question, storage.QueryFilter{
		QueryType:       strings.ToUpper(c.String("type")),
		Tables:          c.StringSlice("table"),
		IncludeInactive: c.Bool("include-inactive"),
		Limit:           c.Int("limit"),
	})
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("no matching queries")
		return nil
	}
	for _, record := range results {
		status := "active"
		if !record.IsActive {
			status = "superseded"
		}
		fmt.Printf("[v%d %s] %s\n  %s\n", record.Version, status, record.Question, record.SQLQuery)
	}
	return nil
}

func resetCommand(c *cli.Context) error {
	if !c.Bool("yes") {
		fmt.Print("This wipes all chunks and the entire graph. Continue? [y/N] ")
		var answer string
		fmt.Scanln(&answer)
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("aborted")
			return nil
		}
	}

	system, err := newSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	if err := system.Reset(c.Context); err != nil {
		return err
	}
	fmt.Println("databases reset")
	return nil
}

func healthCommand(c *cli.Context) error {
	system, err := newSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	health := system.CheckHealth(c.Context)
	fmt.Printf("postgres: %s\n", statusWord(health.Postgres))
	fmt.Printf("neo4j:    %s\n", statusWord(health.Neo4j))
	if !health.Postgres || !health.Neo4j {
		return fmt.Errorf("one or more backends are unreachable")
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	system, err := newSystem(c)
	if err != nil {
		return err
	}
	defer system.Close()

	stats, err := system.CollectStats(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("chunks:        %d\n", stats.Chunks)
	fmt.Printf("nodes:         %d\n", stats.Nodes)
	fmt.Printf("relationships: %d\n", stats.Relationships)
	return nil
}

func statusWord(ok bool) string {
	if ok {
		return "ok"
	}
	return "unreachable"
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
