package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/trackify/mailer/internal/clients"
	"github.com/trackify/mailer/internal/models"
	"github.com/trackify/mailer/internal/store"
)

type sendNowRequest struct {
	GoalID uuid.UUID `json:"goal_id" binding:"required"`
}

type sendResult struct {
	MailID  uuid.UUID  `json:"mail_id"`
	Status  string     `json:"status"`
	Message string     `json:"message"`
	SentAt  *time.Time `json:"sent_at,omitempty"`
}

// sendNow builds and dispatches the monthly report for one goal
// immediately, bypassing the scheduler's once-per-month check. The
// last_sent_at write still goes through the conditional update so a racing
// scheduled tick cannot be double-counted.
func (s *Server) sendNow(c *gin.Context) {
	var req sendNowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	setting, err := s.store.SettingsByGoal(currentUser(c), req.GoalID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "email settings not found for this goal. Please configure email settings first."})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve email settings"})
		return
	}

	rep, err := s.composer.Compose(c.Request.Context(), req.GoalID, setting.Recipient, currentUser(c), currentToken(c))
	if err != nil {
		s.logger.Error("failed to compose report", slog.String("goal_id", req.GoalID.String()), slog.Any("error", err))
		c.JSON(statusForError(err), gin.H{"error": fmt.Sprintf("failed to build report: %v", err)})
		return
	}

	now := time.Now().UTC()
	filename := fmt.Sprintf("report_%s.pdf", now.Format("2006_01"))
	messageID, err := s.dispatcher.Send(setting.Recipient, rep.Subject, rep.HTMLBody, rep.PDF, filename)
	if err != nil {
		s.logger.Error("failed to send report", slog.String("goal_id", req.GoalID.String()), slog.Any("error", err))
		c.JSON(statusForError(err), gin.H{"error": fmt.Sprintf("failed to send email: %v", err)})
		return
	}

	sentAt := time.Now().UTC()
	if _, err := s.store.MarkSent(setting.MailID, setting.LastSentAt, sentAt); err != nil {
		s.logger.Error("failed to record sent report", slog.Any("error", err))
	}

	s.logger.Info("immediate report sent",
		slog.String("goal_id", req.GoalID.String()), slog.String("message_id", messageID))

	c.JSON(http.StatusOK, sendResult{
		MailID:  setting.MailID,
		Status:  string(models.StatusSent),
		Message: fmt.Sprintf("Report email sent successfully to %s", setting.Recipient),
		SentAt:  &sentAt,
	})
}

// sendMail dispatches a draft mail record as-is. Already-sent records are
// refused; a failed send is recorded on the record itself.
func (s *Server) sendMail(c *gin.Context) {
	mail, ok := s.mailFromPath(c)
	if !ok {
		return
	}

	if mail.Status == models.StatusSent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mail already sent"})
		return
	}

	messageID, err := s.dispatcher.Send(mail.Recipient, mail.Subject, mail.Body, nil, "")
	if err != nil {
		mail.Status = models.StatusFailed
		mail.ErrorMessage = err.Error()
		if serr := s.store.SaveMail(mail); serr != nil {
			s.logger.Error("failed to record send failure", slog.Any("error", serr))
		}
		c.JSON(statusForError(err), gin.H{"error": fmt.Sprintf("failed to send email: %v", err)})
		return
	}

	sentAt := time.Now().UTC()
	mail.Status = models.StatusSent
	mail.SentAt = &sentAt
	mail.ErrorMessage = ""
	if err := s.store.SaveMail(mail); err != nil {
		s.logger.Error("failed to record sent mail", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update mail status"})
		return
	}

	c.JSON(http.StatusOK, sendResult{
		MailID:  mail.MailID,
		Status:  string(models.StatusSent),
		Message: fmt.Sprintf("Mail sent successfully (MessageId: %s)", messageID),
		SentAt:  &sentAt,
	})
}

// sendBatch sends a list of draft records sequentially. One failure never
// stops the batch; each id gets its own result entry.
func (s *Server) sendBatch(c *gin.Context) {
	var mailIDs []uuid.UUID
	if err := c.ShouldBindJSON(&mailIDs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := make([]sendResult, 0, len(mailIDs))
	for _, id := range mailIDs {
		results = append(results, s.sendOne(c, id))
	}

	c.JSON(http.StatusOK, gin.H{"total": len(mailIDs), "results": results})
}

func (s *Server) sendOne(c *gin.Context, id uuid.UUID) sendResult {
	mail, err := s.store.GetMail(currentUser(c), id)
	if errors.Is(err, store.ErrNotFound) {
		return sendResult{MailID: id, Status: string(models.StatusFailed), Message: "mail not found"}
	}
	if err != nil {
		return sendResult{MailID: id, Status: string(models.StatusFailed), Message: err.Error()}
	}

	if mail.Status == models.StatusSent {
		return sendResult{MailID: id, Status: string(models.StatusSkipped), Message: "mail already sent"}
	}

	messageID, err := s.dispatcher.Send(mail.Recipient, mail.Subject, mail.Body, nil, "")
	if err != nil {
		mail.Status = models.StatusFailed
		mail.ErrorMessage = err.Error()
		if serr := s.store.SaveMail(mail); serr != nil {
			s.logger.Error("failed to record send failure", slog.Any("error", serr))
		}
		return sendResult{MailID: id, Status: string(models.StatusFailed), Message: err.Error()}
	}

	sentAt := time.Now().UTC()
	mail.Status = models.StatusSent
	mail.SentAt = &sentAt
	mail.ErrorMessage = ""
	if err := s.store.SaveMail(mail); err != nil {
		s.logger.Error("failed to record sent mail", slog.Any("error", err))
	}

	return sendResult{
		MailID:  id,
		Status:  string(models.StatusSent),
		Message: fmt.Sprintf("Mail sent successfully (MessageId: %s)", messageID),
		SentAt:  &sentAt,
	}
}

// statusForError maps the collaborator/dispatch taxonomy onto client-facing
// status codes: missing settings or PDF turn into 404, unreachable
// collaborators into 502/504, everything else into 500.
func statusForError(err error) int {
	var upstream *clients.UpstreamError
	switch {
	case errors.Is(err, clients.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, clients.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, clients.ErrConnect):
		return http.StatusBadGateway
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
