package webserver

import (
	"fmt"
	"net/http"

	"github.com/nantokaworks/draw-bot/internal/shared/logger"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// handleEntryQR serves a QR code pointing at the room's entry endpoint so
// it can be shared on a screen.
func handleEntryQR(w http.ResponseWriter, r *http.Request, roomID int64) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	entryURL := fmt.Sprintf("%s://%s/api/rooms/%d/entries", scheme, r.Host, roomID)

	png, err := qrcode.Encode(entryURL, qrcode.Medium, 256)
	if err != nil {
		logger.Error("Failed to generate entry QR code",
			zap.Int64("room_id", roomID), zap.Error(err))
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		logger.Debug("Failed to write QR response", zap.Error(err))
	}
}
