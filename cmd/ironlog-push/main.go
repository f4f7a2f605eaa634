package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/meltforce/ironlog/internal/push"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "IronLog server URL (e.g. https://ironlog.tail1234.ts.net)")
	apiKey := flag.String("key", "", "API key for the import endpoint (or IRONLOG_AUTH_API_KEY)")
	exportPath := flag.String("path", "", "directory containing snapshot JSON exports")
	dryRun := flag.Bool("dry-run", false, "parse and report but don't send to server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("ironlog-push", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: ironlog-push -server <URL> -key <API key> -path <export dir> [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	if *apiKey == "" {
		*apiKey = os.Getenv("IRONLOG_AUTH_API_KEY")
	}
	if *apiKey == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -key is required (or set IRONLOG_AUTH_API_KEY)\n")
		os.Exit(1)
	}

	// Strip trailing slash from server URL
	*serverURL = strings.TrimRight(*serverURL, "/")

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export directory not found", "path", *exportPath)
		os.Exit(1)
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	stateDir := filepath.Join(homeDir, ".ironlog-push")

	state, err := push.OpenStateDB(stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	if *dryRun {
		log.Info("DRY RUN mode, files will be parsed but not sent")
	}

	pusher := push.New(push.NewClient(*serverURL, *apiKey), state, *exportPath, *dryRun, log)
	stats, err := pusher.Run()
	if err != nil {
		log.Error("push failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("push complete")
}

func printStats(stats *push.Stats) {
	fmt.Println()
	fmt.Println("=== Push Summary ===")
	fmt.Printf("  Files total:    %d\n", stats.FilesTotal)
	fmt.Printf("  Files pushed:   %d\n", stats.FilesPushed)
	fmt.Printf("  Files skipped:  %d (already pushed or empty)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:  %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Workouts sent:  %d\n", stats.WorkoutsSent)
	fmt.Printf("  Sets sent:      %d\n", stats.SetsSent)
	fmt.Printf("  Records sent:   %d\n", stats.RecordsSent)
	fmt.Println()
}
