package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"checkin-backend/store"
)

type EventHandler struct {
	events store.EventStore
}

func NewEventHandler(events store.EventStore) *EventHandler {
	return &EventHandler{events: events}
}

func (h *EventHandler) GetEvents(c *gin.Context) {
	events, err := h.events.ListEvents(c)
	if err != nil {
		slog.Error("failed to list events", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	event, err := h.events.GetEvent(c, eventID)
	if err != nil {
		slog.Error("failed to get event", "event_id", eventID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}

	c.JSON(http.StatusOK, event)
}

// parseEventID reads the :id path parameter and writes a 400 when it is not a positive integer.
func parseEventID(c *gin.Context) (int64, bool) {
	eventID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return 0, false
	}
	return eventID, true
}
