package v1

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"kainan-backend/internal/events"
	"kainan-backend/pkg/logger"
	"kainan-backend/pkg/utils"
)

// EventsHandler streams per-order update events over SSE. Clients treat
// every event as a re-fetch hint and reload the order via the REST API,
// so a dropped or duplicated event never corrupts their view.
type EventsHandler struct {
	hub *events.Hub
}

func NewEventsHandler(hub *events.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

func (h *EventsHandler) StreamOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("id")
	if orderID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Order ID required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, cancel := h.hub.Subscribe(orderID)
	defer cancel()

	logger.WithContext(r.Context()).Debug().Str("order_id", orderID).Msg("SSE subscriber connected")

	for {
		select {
		case <-r.Context().Done():
			return
		case e, open := <-ch:
			if !open {
				return
			}
			payload, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, payload)
			flusher.Flush()
		}
	}
}
