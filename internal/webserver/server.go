package webserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nantokaworks/draw-bot/internal/draw"
	"github.com/nantokaworks/draw-bot/internal/notification"
	"github.com/nantokaworks/draw-bot/internal/roster"
	"github.com/nantokaworks/draw-bot/internal/scheduler"
	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"go.uber.org/zap"
)

// Deps are the collaborators the command surface drives.
type Deps struct {
	Engine     *draw.Engine
	Supervisor *scheduler.Supervisor
	Roster     *roster.Roster
	Notifier   *notification.Notifier
}

var (
	httpServer *http.Server
	deps       Deps
)

// corsMiddleware adds CORS headers to HTTP handlers.
func corsMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler(w, r)
	}
}

// StartWebServer wires the routes and starts listening.
func StartWebServer(port int, d Deps) error {
	deps = d
	deps.Notifier.SetSink(BroadcastNotification)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/rooms/", corsMiddleware(handleRoomAPI))
	mux.HandleFunc("/api/health", corsMiddleware(handleHealth))
	mux.HandleFunc("/ws", handleWS)

	StartWSHub()

	httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Web server stopped unexpectedly", zap.Error(err))
		}
	}()

	logger.Info("Web server listening", zap.Int("port", port))
	return nil
}

// Shutdown stops the HTTP server gracefully.
func Shutdown() {
	if httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("Web server shutdown error", zap.Error(err))
	}
}

// handleRoomAPI routes /api/rooms/{id}/... to the room operations.
func handleRoomAPI(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 2 || parts[0] == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	roomID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "Invalid room id", http.StatusBadRequest)
		return
	}

	switch {
	case parts[1] == "join" && len(parts) == 2:
		requireMethod(w, r, http.MethodPost, func() { handleRoomJoin(w, r, roomID) })
	case parts[1] == "leave" && len(parts) == 2:
		requireMethod(w, r, http.MethodPost, func() { handleRoomLeave(w, r, roomID) })
	case parts[1] == "listen" && len(parts) == 2:
		requireMethod(w, r, http.MethodPost, func() { handleRoomListen(w, r, roomID) })
	case parts[1] == "autodraw" && len(parts) == 2:
		handleAutodraw(w, r, roomID)
	case parts[1] == "entries" && len(parts) == 2:
		handleEntries(w, r, roomID)
	case parts[1] == "entries" && len(parts) == 3:
		requireMethod(w, r, http.MethodDelete, func() { handleEntryDelete(w, r, roomID, parts[2]) })
	case parts[1] == "draw" && len(parts) == 2:
		requireMethod(w, r, http.MethodPost, func() { handleDrawNow(w, r, roomID) })
	case parts[1] == "stats" && len(parts) == 3 && parts[2] == "users":
		requireMethod(w, r, http.MethodGet, func() { handleUserStats(w, r, roomID) })
	case parts[1] == "stats" && len(parts) == 3 && parts[2] == "choices":
		requireMethod(w, r, http.MethodGet, func() { handleChoiceStats(w, r, roomID) })
	case parts[1] == "history" && len(parts) == 3 && parts[2] == "rename":
		requireMethod(w, r, http.MethodPost, func() { handleHistoryRename(w, r, roomID) })
	case parts[1] == "entry-qr" && len(parts) == 2:
		requireMethod(w, r, http.MethodGet, func() { handleEntryQR(w, r, roomID) })
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

func requireMethod(w http.ResponseWriter, r *http.Request, method string, next func()) {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	next()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"tasks":  deps.Supervisor.TaskCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
