package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/trackify/mailer/internal/models"
	"github.com/trackify/mailer/internal/store"
)

type settingsCreateRequest struct {
	GoalID         uuid.UUID `json:"goal_id" binding:"required"`
	RecipientEmail string    `json:"recipient_email" binding:"required"`
	Enabled        bool      `json:"enabled"`
	SendDay        int       `json:"send_day"`
}

type settingsUpdateRequest struct {
	RecipientEmail *string `json:"recipient_email"`
	Enabled        *bool   `json:"enabled"`
	SendDay        *int    `json:"send_day"`
}

type settingsResponse struct {
	MailID         uuid.UUID  `json:"mail_id"`
	GoalID         *uuid.UUID `json:"goal_id"`
	OwnerUserID    string     `json:"owner_user_id"`
	RecipientEmail string     `json:"recipient_email"`
	Enabled        bool       `json:"enabled"`
	SendDay        *int       `json:"send_day"`
	Status         string     `json:"status"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	LastSentAt     *time.Time `json:"last_sent_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toSettingsResponse(m *models.Mail) settingsResponse {
	return settingsResponse{
		MailID:         m.MailID,
		GoalID:         m.RelatedGoalID,
		OwnerUserID:    m.OwnerUserID,
		RecipientEmail: m.Recipient,
		Enabled:        m.Enabled,
		SendDay:        m.SendDay,
		Status:         string(m.Status),
		ErrorMessage:   m.ErrorMessage,
		LastSentAt:     m.LastSentAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// upsertSettings configures automatic monthly reports for a goal. The
// operation is idempotent per (owner, goal): existing settings are updated
// in place.
func (s *Server) upsertSettings(c *gin.Context) {
	var req settingsCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.SendDay == 0 {
		req.SendDay = 1
	}
	if req.SendDay < 1 || req.SendDay > 31 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "send_day must be between 1 and 31"})
		return
	}

	recipient, err := models.NormalizeRecipients(req.RecipientEmail)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	setting, err := s.store.UpsertSettings(currentUser(c), req.GoalID, recipient, req.Enabled, req.SendDay)
	if err != nil {
		s.logger.Error("failed to upsert settings", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save email settings"})
		return
	}

	c.JSON(http.StatusCreated, toSettingsResponse(setting))
}

func (s *Server) listSettings(c *gin.Context) {
	settings, err := s.store.ListSettings(currentUser(c))
	if err != nil {
		s.logger.Error("failed to list settings", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve email settings"})
		return
	}

	out := make([]settingsResponse, 0, len(settings))
	for i := range settings {
		out = append(out, toSettingsResponse(&settings[i]))
	}
	c.JSON(http.StatusOK, gin.H{"settings": out, "total": len(out)})
}

func (s *Server) getSettings(c *gin.Context) {
	goalID, err := uuid.Parse(c.Param("goal_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid goal id"})
		return
	}

	setting, err := s.store.SettingsByGoal(currentUser(c), goalID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "email settings not found for this goal"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve email settings"})
		return
	}

	c.JSON(http.StatusOK, toSettingsResponse(setting))
}

// updateSettings applies a partial update; only fields present in the body
// change.
func (s *Server) updateSettings(c *gin.Context) {
	goalID, err := uuid.Parse(c.Param("goal_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid goal id"})
		return
	}

	var req settingsUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	setting, err := s.store.SettingsByGoal(currentUser(c), goalID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "email settings not found for this goal"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve email settings"})
		return
	}

	if req.RecipientEmail != nil {
		recipient, err := models.NormalizeRecipients(*req.RecipientEmail)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		setting.Recipient = recipient
	}
	if req.Enabled != nil {
		setting.Enabled = *req.Enabled
	}
	if req.SendDay != nil {
		if *req.SendDay < 1 || *req.SendDay > 31 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "send_day must be between 1 and 31"})
			return
		}
		setting.SendDay = req.SendDay
	}

	if err := s.store.UpdateSettings(setting); err != nil {
		s.logger.Error("failed to update settings", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update email settings"})
		return
	}

	c.JSON(http.StatusOK, toSettingsResponse(setting))
}

// deleteSettings stops all future scheduled reports for the goal. History
// is unaffected.
func (s *Server) deleteSettings(c *gin.Context) {
	goalID, err := uuid.Parse(c.Param("goal_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid goal id"})
		return
	}

	err = s.store.DeleteSettings(currentUser(c), goalID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "email settings not found for this goal"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete email settings"})
		return
	}

	c.Status(http.StatusNoContent)
}
