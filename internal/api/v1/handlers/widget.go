package handlers

import (
	_ "embed"
	"net/http"

	"github.com/rs/zerolog/log"
)

//go:embed static/widget.js
var widgetJS []byte

// HandleWidgetJS serves the script that submits turns from the chat page
func HandleWidgetJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	if _, err := w.Write(widgetJS); err != nil {
		log.Debug().Err(err).Msg("Failed to write widget.js")
		return
	}

	log.Debug().
		Str("client_ip", r.RemoteAddr).
		Int("content_length", len(widgetJS)).
		Msg("Widget.js served")
}
