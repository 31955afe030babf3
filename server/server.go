// Package server exposes the small admin HTTP API consumed by the forum's
// admin panel: health, manual rank reorder, and sync triggering.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"forum-mirror/models"
	"forum-mirror/ranker"
	"forum-mirror/syncer"
)

// Server is the admin HTTP listener.
type Server struct {
	ranker *ranker.Ranker
	syncer *syncer.Syncer
	srv    *http.Server
}

// New creates the admin server listening on addr.
func New(addr string, rk *ranker.Ranker, sy *syncer.Syncer) *Server {
	s := &Server{ranker: rk, syncer: sy}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/update-ranks", s.handleUpdateRanks)
	mux.HandleFunc("POST /api/sync", s.handleSync)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start runs the listener in the background.
func (s *Server) Start() {
	go func() {
		log.Printf("Admin API listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Admin API server error: %v", err)
		}
	}()
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpdateRanks applies a manual reorder batch. The batch is atomic:
// the response is either full success or failure with nothing applied.
func (s *Server) handleUpdateRanks(w http.ResponseWriter, r *http.Request) {
	var updates []models.RankUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid JSON body"})
		return
	}
	if len(updates) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "empty rank update batch"})
		return
	}

	if err := s.ranker.Apply(updates); err != nil {
		log.Printf("Manual rank update of %d entries failed: %v", len(updates), err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
		return
	}

	log.Printf("Applied manual rank update for %d threads", len(updates))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": len(updates)})
}

// handleSync triggers a sync run in the background.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ForceFull bool   `json:"forceFull"`
		ChannelID string `json:"channelId"`
	}
	if r.Body != nil {
		// An empty body means a plain delta sync.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	go func() {
		opts := models.SyncOptions{ForceFull: req.ForceFull, ChannelID: req.ChannelID}
		if _, err := s.syncer.Run(context.Background(), opts); err != nil {
			if errors.Is(err, syncer.ErrSyncRunning) {
				log.Println("Sync trigger ignored, a run is already in progress.")
				return
			}
			log.Printf("Triggered sync failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]any{"success": true, "status": "sync started"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
