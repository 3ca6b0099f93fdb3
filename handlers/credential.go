package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"checkin-backend/checkin"
	"checkin-backend/models"
)

// CredentialIssuer is the part of checkin.Issuer the admin display needs.
type CredentialIssuer interface {
	GetOrIssueCredential(ctx context.Context, eventID int64) (*models.Credential, error)
	ForceRotate(ctx context.Context, eventID int64) (*models.Credential, error)
}

type CredentialHandler struct {
	issuer    CredentialIssuer
	publicURL string
}

func NewCredentialHandler(issuer CredentialIssuer, publicURL string) *CredentialHandler {
	return &CredentialHandler{issuer: issuer, publicURL: publicURL}
}

// GetCredential returns the current credential for the event, issuing one if
// none is active. Displays poll this to keep their QR code fresh.
func (h *CredentialHandler) GetCredential(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	cred, err := h.issuer.GetOrIssueCredential(c, eventID)
	if err != nil {
		h.writeError(c, eventID, err)
		return
	}

	c.JSON(http.StatusOK, h.response(cred))
}

// RotateCredential issues a fresh credential regardless of the current one.
func (h *CredentialHandler) RotateCredential(c *gin.Context) {
	eventID, ok := parseEventID(c)
	if !ok {
		return
	}

	slog.Info("rotating credential", "event_id", eventID, "requested_by", UserID(c))

	cred, err := h.issuer.ForceRotate(c, eventID)
	if err != nil {
		h.writeError(c, eventID, err)
		return
	}

	c.JSON(http.StatusCreated, h.response(cred))
}

func (h *CredentialHandler) response(cred *models.Credential) models.CredentialResponse {
	return models.CredentialResponse{
		EventID:    cred.EventID,
		Token:      cred.Value,
		CheckinURL: checkin.CheckinURL(h.publicURL, cred.Value),
		IssuedAt:   cred.IssuedAt,
		ExpiresAt:  cred.ExpiresAt,
	}
}

func (h *CredentialHandler) writeError(c *gin.Context, eventID int64, err error) {
	switch {
	case errors.Is(err, checkin.ErrInvalidEvent):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
	case errors.Is(err, checkin.ErrEventNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
	default:
		slog.Error("failed to issue credential", "event_id", eventID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue check-in code"})
	}
}
