package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dan/aero/internal/db"
	"github.com/dan/aero/internal/models"
	"github.com/dan/aero/internal/server"
	"github.com/dan/aero/internal/store"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "aero.db", "path to SQLite database file")
	apiURL := flag.String("api", "", "sensors API base URL used to seed a default backend when none is configured")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("starting AERO — Air-Quality Readings Dashboard")

	// ── Database ────────────────────────────────────────────────────────
	database, err := db.New(*dbPath)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	if err := seedDefaultBackend(database, *apiURL); err != nil {
		log.Fatalf("seed backend: %v", err)
	}

	// ── HTTP Server ─────────────────────────────────────────────────────
	srv, err := server.New(database, *addr)
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	// Start server in a goroutine so we can listen for shutdown signals.
	srv.StartBackgroundJobs()
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// ── Graceful Shutdown ───────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("received %s, shutting down...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}

	log.Println("shutdown complete")
}

// seedDefaultBackend creates an initial backend profile from the -api flag
// when the backends table is empty, so a fresh install can log in without
// visiting the admin pages first.
func seedDefaultBackend(database *db.DB, apiURL string) error {
	if apiURL == "" {
		return nil
	}

	backends := store.NewBackendStore(database.Conn)
	count, err := backends.Count()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	b := &models.Backend{
		ID:               uuid.NewString(),
		Name:             "default",
		BaseURL:          apiURL,
		ExplorerProvider: "solana.com",
		ExplorerCluster:  "devnet",
		Enabled:          true,
	}
	if err := backends.Create(b); err != nil {
		return err
	}
	log.Printf("seeded default backend: %s", apiURL)
	return nil
}
