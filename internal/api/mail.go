package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/trackify/mailer/internal/models"
	"github.com/trackify/mailer/internal/store"
)

type mailCreateRequest struct {
	Recipient     string     `json:"recipient" binding:"required"`
	Subject       string     `json:"subject" binding:"required,max=500"`
	Body          string     `json:"body" binding:"required"`
	RelatedGoalID *uuid.UUID `json:"related_goal_id"`
	IncludePDF    bool       `json:"include_pdf"`
	PDFGoalID     *uuid.UUID `json:"pdf_goal_id"`
}

type mailUpdateRequest struct {
	Recipient *string `json:"recipient"`
	Subject   *string `json:"subject"`
	Body      *string `json:"body"`
}

// createMail stores a draft mail record without sending it. When the
// request asks for a PDF, the attachment reference is fetched up front so a
// later send does not depend on the PDF Service being up.
func (s *Server) createMail(c *gin.Context) {
	var req mailCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipient, err := models.NormalizeRecipients(req.Recipient)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var pdfURL string
	if req.IncludePDF && req.PDFGoalID != nil {
		if _, err := s.pdfClient.RenderGoalReport(c.Request.Context(), *req.PDFGoalID, currentToken(c)); err != nil {
			s.logger.Warn("failed to fetch PDF for draft mail",
				slog.String("goal_id", req.PDFGoalID.String()), slog.Any("error", err))
		} else {
			pdfURL = fmt.Sprintf("pdf://%s", req.PDFGoalID)
		}
	}

	mail := models.Mail{
		OwnerUserID:   currentUser(c),
		RelatedGoalID: req.RelatedGoalID,
		Recipient:     recipient,
		Subject:       req.Subject,
		Body:          req.Body,
		PDFURL:        pdfURL,
		Status:        models.StatusPending,
	}

	if err := s.store.CreateMail(&mail); err != nil {
		s.logger.Error("failed to create mail", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create mail"})
		return
	}

	c.JSON(http.StatusCreated, mail)
}

func (s *Server) listMails(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	status := models.MailStatus(c.Query("status"))

	mails, total, err := s.store.ListMails(currentUser(c), page, pageSize, status)
	if err != nil {
		s.logger.Error("failed to list mails", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve mails"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mails":     mails,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (s *Server) getMail(c *gin.Context) {
	mail, ok := s.mailFromPath(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, mail)
}

func (s *Server) updateMail(c *gin.Context) {
	mail, ok := s.mailFromPath(c)
	if !ok {
		return
	}

	if mail.Status == models.StatusSent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot update a sent mail"})
		return
	}

	var req mailUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Recipient != nil {
		recipient, err := models.NormalizeRecipients(*req.Recipient)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		mail.Recipient = recipient
	}
	if req.Subject != nil {
		mail.Subject = *req.Subject
	}
	if req.Body != nil {
		mail.Body = *req.Body
	}

	if err := s.store.SaveMail(mail); err != nil {
		s.logger.Error("failed to update mail", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update mail"})
		return
	}

	c.JSON(http.StatusOK, mail)
}

func (s *Server) deleteMail(c *gin.Context) {
	mail, ok := s.mailFromPath(c)
	if !ok {
		return
	}

	if mail.Status == models.StatusSent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete a sent mail"})
		return
	}

	if err := s.store.DeleteMail(currentUser(c), mail.MailID); err != nil {
		s.logger.Error("failed to delete mail", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete mail"})
		return
	}

	c.Status(http.StatusNoContent)
}

// mailFromPath loads the :id mail scoped to the caller, writing the error
// response itself when the lookup fails.
func (s *Server) mailFromPath(c *gin.Context) (*models.Mail, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mail id"})
		return nil, false
	}

	mail, err := s.store.GetMail(currentUser(c), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "mail not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve mail"})
		return nil, false
	}
	return mail, true
}
