// Command seed writes catalog items into the configured document store. The
// application itself never creates items; this is the out-of-band path.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/goccy/go-yaml"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/app"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/config"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/domain"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/repository"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/logger"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/validator"
)

var usage = heredoc.Doc(`
	Usage: seed [flags] <items.yaml>

	Writes every item of the YAML file into the store selected by
	STORE_BACKEND (firestore, postgres). Items are appended; running the
	command twice creates duplicates.

	File format:

	  items:
	    - name: Desk Lamp
	      description: Warm light for late reading.
	      price: 24.99

	Flags:
`)

// seedFile is the layout of a seed file.
type seedFile struct {
	Items []domain.NewItem `yaml:"items"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	dryRun := flag.Bool("dry-run", false, "validate the file without writing")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall deadline")
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.NewWithWriter("item-showcase-seed", cfg.LogLevel, os.Stderr)

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Error("failed to open seed file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	items, err := loadSeedFile(f)
	_ = f.Close()
	if err != nil {
		log.Error("invalid seed file", slog.String("file", flag.Arg(0)), slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *dryRun {
		log.Info("seed file is valid", slog.Int("items", len(items)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	store, closeStore, err := app.OpenStore(ctx, cfg, nil, log)
	if err != nil {
		log.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	created, err := seedItems(ctx, store.Items(), items, log)
	if err != nil {
		log.Error("seeding stopped", slog.Int("created", created), slog.String("error", err.Error()))
		closeStore()
		os.Exit(1)
	}
	log.Info("seeding complete", slog.Int("created", created))
}

// loadSeedFile parses and validates a seed file.
func loadSeedFile(r io.Reader) ([]domain.NewItem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var file seedFile
	if err := yaml.UnmarshalWithOptions(data, &file, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(file.Items) == 0 {
		return nil, fmt.Errorf("seed file has no items")
	}
	for i, item := range file.Items {
		if err := validator.Validate(item); err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		if p, ok := domain.PriceFromValue(item.Price).Amount(); ok && p < 0 {
			return nil, fmt.Errorf("item %d (%s): price must not be negative", i+1, item.Name)
		}
	}
	return file.Items, nil
}

// seedItems creates items in order and stops at the first failure.
func seedItems(ctx context.Context, repo repository.ItemRepository, items []domain.NewItem, log *slog.Logger) (int, error) {
	for i, item := range items {
		id, err := repo.Create(ctx, item)
		if err != nil {
			return i, fmt.Errorf("create item %q: %w", item.Name, err)
		}
		log.Info("item created", slog.String("item_id", id), slog.String("name", item.Name))
	}
	return len(items), nil
}
