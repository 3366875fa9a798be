// Command resolveturn hosts the civilization-engine HTTP API: it loads a
// theme package, opens or creates the game database, and serves turn
// resolution over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ashkar-house/realms/internal/api"
	"github.com/ashkar-house/realms/internal/persistence"
	"github.com/ashkar-house/realms/internal/theme"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("realms — turn-based civilization engine")

	themePath := envOr("REALMS_THEME_PATH", "data/theme.json")
	dbPath := envOr("REALMS_DB_PATH", "data/realms.db")
	apiPort := 8080
	if portStr := os.Getenv("REALMS_API_PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			apiPort = p
		}
	}

	raw, err := os.ReadFile(themePath)
	if err != nil {
		slog.Error("failed to read theme package", "path", themePath, "error", err)
		os.Exit(1)
	}

	th, err := theme.Load(raw)
	if err != nil {
		slog.Error("theme package invalid", "path", themePath, "error", err)
		os.Exit(1)
	}
	slog.Info("theme loaded",
		"id", th.ID,
		"civilizations", len(th.Civilizations),
		"units", len(th.Units),
		"buildings", len(th.Buildings),
		"techs", len(th.Techs),
		"events", len(th.Events),
	)

	if err := os.MkdirAll("data", 0755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", dbPath)

	games, err := db.ListGames()
	if err != nil {
		slog.Error("failed to list games", "error", err)
		os.Exit(1)
	}
	slog.Info("games on record", "count", len(games))
	for _, g := range games {
		slog.Info("game", "id", g.GameID, "theme", g.ThemeID, "turn", g.Turn, "phase", g.Phase)
	}

	adminKey := os.Getenv("REALMS_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("REALMS_ADMIN_KEY not set — mutating endpoints (create game, submit orders, resolve turn) are disabled")
	}

	apiServer := &api.Server{
		DB:       db,
		Theme:    th,
		Port:     apiPort,
		AdminKey: adminKey,
	}
	apiServer.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	fmt.Printf("\nrealms engine serving theme %q with %d civilizations.\n", th.ID, len(th.Civilizations))
	fmt.Printf("API: http://localhost:%d/api/v1/games\n", apiPort)
	fmt.Println("Press Ctrl+C to stop.")

	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
