package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/daniacca/rxnsim/internal/kinetics"
	"github.com/daniacca/rxnsim/internal/kinetics/notifiers"
)

// routes builds the HTTP mux for the server's API surface.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/networks", s.handleNetworks)
	mux.HandleFunc("/runs", s.handleRuns)
	mux.HandleFunc("/runs/", s.handleRunByID)
	mux.HandleFunc("/notifiers", s.handleNotifiers)
	mux.HandleFunc("/notifiers/", s.handleNotifierByID)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// POST /networks — body: NetworkConfig JSON
// GET  /networks — list loaded network names
func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		defer r.Body.Close()
		var cfg kinetics.NetworkConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "invalid network json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.LoadNetwork(r.Context(), cfg); err != nil {
			http.Error(w, "cannot load network: "+err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("network loaded"))

	case http.MethodGet:
		writeJSON(w, s.NetworkNames())

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// POST /runs — body: startRunRequest JSON; returns the run record
// GET  /runs — list run records (histories omitted)
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		defer r.Body.Close()
		var req startRunRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid run request: "+err.Error(), http.StatusBadRequest)
			return
		}

		ic := kinetics.InitialCondition{
			Volume:         req.Volume,
			Concentrations: make(map[kinetics.SpeciesID]float64, len(req.Concentrations)),
		}
		for key, conc := range req.Concentrations {
			id, err := parseSpeciesID(key)
			if err != nil {
				http.Error(w, "invalid species id "+key, http.StatusBadRequest)
				return
			}
			ic.Concentrations[id] = conc
		}

		rec, err := s.StartRun(req, ic)
		if err != nil {
			http.Error(w, "cannot start run: "+err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		writeJSON(w, rec)

	case http.MethodGet:
		writeJSON(w, s.ListRuns())

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// GET /runs/{id} — full run record, event history included
func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/runs/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}
	rec, ok := s.GetRun(id)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	writeJSON(w, rec)
}

// POST   /notifiers — body: { "id": ..., "type": "webhook", "url": ... }
// GET    /notifiers — list registered notifier ids
// DELETE /notifiers/{id}
type registerNotifierRequest struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

func (s *Server) handleNotifiers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		defer r.Body.Close()
		var req registerNotifierRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid notifier json: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.Type != "webhook" {
			http.Error(w, "unsupported notifier type: "+req.Type, http.StatusBadRequest)
			return
		}
		if req.ID == "" || req.URL == "" {
			http.Error(w, "notifier id and url are required", http.StatusBadRequest)
			return
		}
		if err := s.notifMgr.RegisterNotifier(notifiers.NewWebhookNotifier(req.ID, req.URL)); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusCreated)

	case http.MethodGet:
		writeJSON(w, s.notifMgr.ListNotifiers())

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleNotifierByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/notifiers/")
	if id == "" || id == wsNotifierID {
		http.Error(w, "invalid notifier id", http.StatusBadRequest)
		return
	}
	if err := s.notifMgr.UnregisterNotifier(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /ws — upgrade to a websocket streaming every step event
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.ws.Upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	s.ws.RegisterClient(conn)

	// drain (and discard) client messages so pings/closes are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.ws.UnregisterClient(conn)
				return
			}
		}
	}()
}

func parseSpeciesID(key string) (kinetics.SpeciesID, error) {
	id, err := strconv.Atoi(key)
	return kinetics.SpeciesID(id), err
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
	}
}
