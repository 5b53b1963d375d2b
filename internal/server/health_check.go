package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dan/aero/internal/airapi"
	"github.com/dan/aero/internal/models"
)

const checkInterval = 2 * time.Minute
const checkTimeout = 15 * time.Second

// backendPoller runs in a goroutine and periodically checks that every
// enabled backend is reachable, updating the status tracker and activity
// log. This is infrastructure polling only — dashboard loaders never retry
// on their own.
func (s *Server) backendPoller() {
	// Run an initial check immediately after startup.
	s.checkAllBackends()

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChecks:
			log.Println("[health] backend poller stopped")
			return
		case <-ticker.C:
			s.checkAllBackends()
		}
	}
}

// checkAllBackends tests every enabled backend in parallel.
func (s *Server) checkAllBackends() {
	backends, err := s.backends.ListEnabled()
	if err != nil {
		log.Printf("[health] failed to list backends: %v", err)
		return
	}
	if len(backends) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, b := range backends {
		wg.Add(1)
		go func(b models.Backend) {
			defer wg.Done()
			s.checkBackend(b)
		}(b)
	}
	wg.Wait()
}

// checkBackend probes one backend. Any HTTP response counts as reachable;
// only transport failures are down. Transient blips within one check are
// absorbed by a short exponential backoff.
func (s *Server) checkBackend(b models.Backend) {
	s.status.Set(&BackendStatus{
		Name:      b.Name,
		Status:    "checking",
		CheckedAt: time.Now().UTC(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	api := airapi.New(b.BaseURL)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 10 * time.Second

	start := time.Now()
	checkErr := backoff.Retry(func() error {
		return api.Ping(ctx)
	}, backoff.WithContext(bo, ctx))
	latency := time.Since(start)

	if checkErr != nil {
		fails := b.ConsecFails + 1
		s.status.Set(&BackendStatus{
			Name:        b.Name,
			Status:      "down",
			Error:       checkErr.Error(),
			CheckedAt:   time.Now().UTC(),
			Latency:     latency,
			ConsecFails: fails,
		})
		_ = s.backends.RecordCheckResult(b.Name, false, checkErr.Error(), fails)
		s.activity.Logf(b.Name, "error", "Unreachable (%s): %s", latency.Round(time.Millisecond), checkErr)
		log.Printf("[health] %s: DOWN (%s) — %v", b.Name, latency.Round(time.Millisecond), checkErr)
		return
	}

	s.status.Set(&BackendStatus{
		Name:      b.Name,
		Status:    "reachable",
		CheckedAt: time.Now().UTC(),
		Latency:   latency,
	})
	_ = s.backends.RecordCheckResult(b.Name, true, "", 0)
	log.Printf("[health] %s: OK (%s)", b.Name, latency.Round(time.Millisecond))
}
