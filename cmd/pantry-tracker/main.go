package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/pantrykit/pantry-tracker/internal/extraction"
	"github.com/pantrykit/pantry-tracker/internal/pantry"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	rootFlags := ff.NewFlagSet("pantry-tracker")
	var (
		dbPath      = rootFlags.StringLong("db", "pantry-tracker.db", "Database file path")
		imagesPath  = rootFlags.StringLong("images", "./images", "Item photo directory path")
		visionType  = rootFlags.StringLong("vision", "gemini", "Vision provider: 'gemini' or 'ollama'")
		geminiKey   = rootFlags.StringLong("gemini-key", "", "Google Gemini API key (or set PANTRY_TRACKER_GEMINI_KEY)")
		geminiModel = rootFlags.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL   = rootFlags.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = rootFlags.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		showVersion = rootFlags.BoolLong("version", "Show version information")
	)

	enrichFlags := ff.NewFlagSet("enrich").SetParent(rootFlags)
	enrichItem := enrichFlags.StringLong("item", "", "ID of the pantry item to enrich")

	sweepFlags := ff.NewFlagSet("sweep").SetParent(rootFlags)
	sweepUser := sweepFlags.StringLong("user", "", "User whose pantry to sweep")

	expiringFlags := ff.NewFlagSet("expiring").SetParent(rootFlags)
	expiringUser := expiringFlags.StringLong("user", "", "User whose pantry to inspect")
	expiringDays := expiringFlags.IntLong("days", 7, "Forward window in days")

	rootCmd := &ff.Command{
		Name:      "pantry-tracker",
		Usage:     "pantry-tracker [FLAGS] SUBCOMMAND ...",
		ShortHelp: "extract pantry-item fields from product photos and track expiry",
		Flags:     rootFlags,
		Exec: func(ctx context.Context, args []string) error {
			return ff.ErrHelp
		},
	}

	rootCmd.Subcommands = append(rootCmd.Subcommands, &ff.Command{
		Name:      "enrich",
		Usage:     "pantry-tracker enrich --item ID",
		ShortHelp: "re-run extraction over an item's stored photos and fill unset fields",
		Flags:     enrichFlags,
		Exec: func(ctx context.Context, args []string) error {
			if *enrichItem == "" {
				return errors.New("--item is required")
			}

			vision, err := newVisionClient(*visionType, *geminiKey, *geminiModel, *ollamaURL, *ollamaModel)
			if err != nil {
				return err
			}
			defer vision.Close()

			service, closeService, err := newService(*dbPath, *imagesPath, vision)
			if err != nil {
				return err
			}
			defer closeService()

			changed, err := service.EnrichItem(*enrichItem)
			if err != nil {
				return err
			}
			if changed {
				fmt.Printf("item %s enriched\n", *enrichItem)
			} else {
				fmt.Printf("item %s unchanged\n", *enrichItem)
			}
			return nil
		},
	})

	rootCmd.Subcommands = append(rootCmd.Subcommands, &ff.Command{
		Name:      "sweep",
		Usage:     "pantry-tracker sweep --user ID",
		ShortHelp: "transition overdue active items to expired and record the waste",
		Flags:     sweepFlags,
		Exec: func(ctx context.Context, args []string) error {
			if *sweepUser == "" {
				return errors.New("--user is required")
			}

			// The sweep only reads the database; no vision client needed.
			service, closeService, err := newService(*dbPath, *imagesPath, nil)
			if err != nil {
				return err
			}
			defer closeService()

			expired, err := service.SweepExpired(*sweepUser)
			if err != nil {
				return err
			}
			fmt.Printf("%d item(s) newly expired\n", expired)
			return nil
		},
	})

	rootCmd.Subcommands = append(rootCmd.Subcommands, &ff.Command{
		Name:      "expiring",
		Usage:     "pantry-tracker expiring --user ID [--days N]",
		ShortHelp: "list active items expiring within the window, soonest first",
		Flags:     expiringFlags,
		Exec: func(ctx context.Context, args []string) error {
			if *expiringUser == "" {
				return errors.New("--user is required")
			}

			service, closeService, err := newService(*dbPath, *imagesPath, nil)
			if err != nil {
				return err
			}
			defer closeService()

			items, err := service.GetExpiringSoonItems(*expiringUser, *expiringDays)
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Printf("%s\t%s\t%s\n", item.ExpiryDate.Format("2006-01-02"), item.ID, item.Name)
			}
			return nil
		},
	})

	err := rootCmd.ParseAndRun(context.Background(), os.Args[1:],
		ff.WithEnvVarPrefix("PANTRY_TRACKER"),
	)

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	switch {
	case errors.Is(err, ff.ErrHelp):
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Command(rootCmd))
		os.Exit(1)
	case err != nil:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newVisionClient builds the configured vision provider
func newVisionClient(visionType, geminiKey, geminiModel, ollamaURL, ollamaModel string) (extraction.Client, error) {
	switch visionType {
	case "gemini":
		apiKey := geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini vision client...", "model", geminiModel)
		return extraction.NewGemini(apiKey, geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama vision client...", "url", ollamaURL, "model", ollamaModel)
		return extraction.NewOllama(ollamaURL, ollamaModel)
	default:
		return nil, fmt.Errorf("invalid vision provider %q: want gemini or ollama", visionType)
	}
}

// newService wires the database and image store into a pantry service
func newService(dbPath, imagesPath string, vision extraction.Client) (*pantry.Service, func(), error) {
	db, err := pantry.NewBoltDB(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing database: %w", err)
	}

	images, err := pantry.NewLocalImageStore(imagesPath)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("initializing image store: %w", err)
	}

	closeService := func() {
		if err := db.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}
	return pantry.NewService(db, vision, images), closeService, nil
}
