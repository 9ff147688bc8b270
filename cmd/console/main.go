package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/inquest-engine/internal/config"
	"github.com/jwebster45206/inquest-engine/internal/logger"
)

const defaultPartySize = 3

func main() {
	memory := flag.Bool("memory", false, "keep characters and sessions in memory instead of SQLite and Redis")
	players := flag.String("players", "", "comma-separated investigator ids (defaults to the first roster entries)")
	logPath := flag.String("log", "console.log", "log file path")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns stdout, so logs go to a file.
	if dir := filepath.Dir(*logPath); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log := logger.New(cfg, logFile)

	b, err := newBackend(cfg, *memory, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not start engine: %v\n", err)
		if !*memory {
			fmt.Fprintf(os.Stderr, "Is Redis running? Try: docker-compose up -d redis, or run with -memory\n")
		}
		os.Exit(1)
	}
	defer b.close()

	members, err := partyMembers(context.Background(), b, *players)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to pick party: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(b, members),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	if ui, ok := final.(ConsoleUI); ok && ui.play != nil {
		if err := b.engine.EndSession(context.Background(), ui.play.session.ID); err != nil {
			log.Warn("Failed to end session", "error", err, "session_id", ui.play.session.ID)
		}
	}
}

// partyMembers resolves the -players flag, falling back to the roster.
func partyMembers(ctx context.Context, b *backend, flagValue string) ([]string, error) {
	if flagValue != "" {
		var members []string
		for _, id := range strings.Split(flagValue, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, err := b.characters.GetInvestigator(ctx, id); err != nil {
				return nil, fmt.Errorf("investigator %q: %w", id, err)
			}
			members = append(members, id)
		}
		if len(members) == 0 {
			return nil, fmt.Errorf("no investigators in -players")
		}
		return members, nil
	}

	roster, err := b.content.Investigators(ctx)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("no investigators in %s", filepath.Join(b.cfg.ContentDir, "investigators.yaml"))
	}
	var members []string
	for i := 0; i < len(roster) && i < defaultPartySize; i++ {
		members = append(members, roster[i].ID)
	}
	return members, nil
}
