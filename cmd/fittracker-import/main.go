package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claude/fittracker/internal/client"
	"github.com/claude/fittracker/internal/importer"
	"github.com/claude/fittracker/internal/logging"
	"github.com/fatih/color"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	okColor   = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed)
	infoColor = color.New(color.FgYellow)
	headColor = color.New(color.FgCyan, color.Bold)
)

func main() {
	serverURL := flag.String("server", "", "FitTracker server URL (e.g. https://fittracker.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("FITTRACKER_API_KEY"), "API key for the import endpoint (default $FITTRACKER_API_KEY)")
	file := flag.String("file", "", "fichas JSON document to import")
	dryRun := flag.Bool("dry-run", false, "validate locally and on the server but don't import")
	force := flag.Bool("force", false, "import even if this document was already imported")
	backup := flag.String("backup", "", "write a full backup of the server to this path and exit")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fittracker-import", Version)
		return
	}

	log, _ := logging.New(logging.Params{Level: "info"})

	if *serverURL == "" && (*backup != "" || !*dryRun) {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}
	*serverURL = strings.TrimRight(*serverURL, "/")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var c *client.Client
	if *serverURL != "" {
		c = client.NewClient(*serverURL, *apiKey)
	}

	if *backup != "" {
		data, err := c.Backup(ctx)
		if err != nil {
			log.Error("backup failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*backup, data, 0o600); err != nil {
			log.Error("writing backup failed", "path", *backup, "error", err)
			os.Exit(1)
		}
		okColor.Printf("Backup written to %s (%d bytes)\n", *backup, len(data))
		return
	}

	if *file == "" {
		fmt.Fprintf(os.Stderr, "Usage: fittracker-import -server <URL> -file fichas.json [-dry-run] [-force]\n")
		fmt.Fprintf(os.Stderr, "       fittracker-import -server <URL> -backup backup.json\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Error("reading import file failed", "path", *file, "error", err)
		os.Exit(1)
	}

	// Local check first so typos never reach the server.
	res := importer.Parse(data, importer.DefaultOptions())
	if !res.OK() {
		printProblems(res.Problems)
		os.Exit(1)
	}
	headColor.Printf("%s: %d fichas\n", filepath.Base(*file), len(res.Workouts))
	for _, w := range res.Workouts {
		fmt.Printf("  Ficha %s  %-24s %d exercises\n", w.Type, w.Name, len(w.Exercises))
	}

	if *dryRun {
		if c != nil {
			preview, err := c.Validate(ctx, data)
			if err != nil {
				log.Error("server validation failed", "error", err)
				os.Exit(1)
			}
			if !preview.Valid {
				printProblems(preview.Errors)
				os.Exit(1)
			}
			okColor.Println("Server accepts the document.")
		}
		infoColor.Println("DRY RUN: nothing was imported")
		return
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	state, err := client.OpenStateDB(filepath.Join(homeDir, ".fittracker-import"))
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	hash := client.Hash(data)
	if !*force {
		done, err := state.IsImported(*serverURL, hash)
		if err != nil {
			log.Error("state lookup failed", "error", err)
			os.Exit(1)
		}
		if done {
			infoColor.Printf("%s was already imported to %s (use -force to import again)\n", *file, *serverURL)
			return
		}
	}

	imported, err := c.Import(ctx, data)
	if err != nil {
		var verr *client.ValidationError
		var perr *client.PartialImportError
		switch {
		case errors.As(err, &verr):
			printProblems(verr.Problems)
		case errors.As(err, &perr):
			errColor.Printf("Import stopped: %s\n", perr.Message)
			fmt.Printf("  %d fichas were stored before the failure:\n", len(perr.Imported))
			for _, w := range perr.Imported {
				fmt.Printf("    %s  %s\n", w.ID, w.Name)
			}
		default:
			log.Error("import failed", "error", err)
		}
		state.Close()
		os.Exit(1)
	}

	if err := state.MarkImported(*serverURL, hash, *file, len(imported)); err != nil {
		log.Warn("recording import state failed", "error", err)
	}
	okColor.Printf("Imported %d fichas\n", len(imported))
}

func printProblems(problems []string) {
	errColor.Printf("Document rejected (%d problems):\n", len(problems))
	for _, p := range problems {
		fmt.Printf("  - %s\n", p)
	}
}
