package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"checkin-backend/checkin"
	"checkin-backend/models"
	"checkin-backend/store"
)

// Redeemer is the part of checkin.Validator the check-in endpoint needs.
type Redeemer interface {
	Redeem(ctx context.Context, rawScan, userID string) (*models.CheckinResult, error)
}

type CheckinHandler struct {
	redeemer Redeemer
	checkins store.CheckinStore
	events   store.EventStore
}

func NewCheckinHandler(redeemer Redeemer, checkins store.CheckinStore, events store.EventStore) *CheckinHandler {
	return &CheckinHandler{redeemer: redeemer, checkins: checkins, events: events}
}

// CheckIn redeems a scanned QR value for the authenticated user.
func (h *CheckinHandler) CheckIn(c *gin.Context) {
	userID := UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Login required to check in"})
		return
	}

	var req models.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Request must include the scanned QR value"})
		return
	}

	result, err := h.redeemer.Redeem(c, req.Scan, userID)
	if errors.Is(err, checkin.ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Login required to check in"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Check-in failed, please try again"})
		return
	}

	switch {
	case result.Committed():
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Successfully checked in to event",
			"result":  result,
		})
	case result.Reason == models.ReasonAlreadyCheckedIn:
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"message": "You have already checked in to this event",
			"result":  result,
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid QR code",
			"result":  result,
		})
	}
}

// GetMyCheckins lists the caller's check-ins, newest first.
func (h *CheckinHandler) GetMyCheckins(c *gin.Context) {
	userID := UserID(c)

	items, err := h.checkins.CheckinHistory(c, userID)
	if err != nil {
		slog.Error("failed to load check-in history", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if items == nil {
		items = []models.CheckinHistoryItem{}
	}

	c.JSON(http.StatusOK, gin.H{"checkins": items, "count": len(items)})
}

// GetCheckins lists every check-in recorded for an event.
func (h *CheckinHandler) GetCheckins(c *gin.Context) {
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

	records, err := h.checkins.EventCheckins(c, eventID)
	if err != nil {
		slog.Error("failed to list check-ins", "event_id", eventID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if records == nil {
		records = []models.CheckinRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"event": event, "checkins": records, "count": len(records)})
}
