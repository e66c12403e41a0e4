package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/fittracker/internal/logging"
	fmcp "github.com/claude/fittracker/internal/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "FitTracker server URL (e.g. https://fittracker.tail1234.ts.net)")
	level := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("fittracker-mcp", Version)
		return
	}
	if *serverURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: fittracker-mcp -server <URL>\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// stdout carries the protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logging.ParseLevel(*level)}))

	s := fmcp.New(fmcp.NewHTTPClient(*serverURL), Version, log)
	log.Info("mcp stdio bridge starting", "server", *serverURL)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp stdio stopped", "error", err)
		os.Exit(1)
	}
}
