package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trackify/mailer/internal/auth"
	"github.com/trackify/mailer/internal/clients"
	"github.com/trackify/mailer/internal/models"
	"github.com/trackify/mailer/internal/report"
	"github.com/trackify/mailer/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type stubComposer struct {
	err error
}

func (s *stubComposer) Compose(ctx context.Context, goalID uuid.UUID, recipient, ownerID, token string) (*report.Report, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &report.Report{
		Subject:  "Monthly Time Report - January 2026",
		HTMLBody: "<html></html>",
		PDF:      []byte("%PDF-1.4"),
	}, nil
}

type stubDispatcher struct {
	err  error
	sent int
}

func (s *stubDispatcher) Send(recipients, subject, htmlBody string, attachment []byte, filename string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.sent++
	return "<msg@test>", nil
}

type stubPDF struct {
	err error
}

func (s *stubPDF) RenderGoalReport(ctx context.Context, goalID uuid.UUID, token string) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("%PDF-1.4"), nil
}

type testEnv struct {
	server     *Server
	db         *gorm.DB
	store      *store.Store
	composer   *stubComposer
	dispatcher *stubDispatcher
	token      string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Mail{}))

	st := store.New(db)
	composer := &stubComposer{}
	dispatcher := &stubDispatcher{}

	token, err := auth.GenerateServiceToken("google_12345", testSecret, time.Hour)
	require.NoError(t, err)

	return &testEnv{
		server:     NewServer(st, composer, dispatcher, &stubPDF{}, slog.Default(), testSecret),
		db:         db,
		store:      st,
		composer:   composer,
		dispatcher: dispatcher,
		token:      token,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)

	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	return w
}

func TestHealthEndpointsArePublic(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/mail/health/liveness", nil)
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/mail/health/readiness", nil)
	w = httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/mail/settings", nil)
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSettingsLifecycle(t *testing.T) {
	e := newTestEnv(t)
	goalID := uuid.New()

	w := e.do(t, http.MethodPost, "/api/mail/settings", gin.H{
		"goal_id":         goalID,
		"recipient_email": "jane@example.com",
		"enabled":         true,
		"send_day":        15,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created settingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, goalID, *created.GoalID)
	assert.Equal(t, "jane@example.com", created.RecipientEmail)
	assert.Equal(t, 15, *created.SendDay)
	assert.True(t, created.Enabled)

	// Upsert again for the same goal updates in place.
	w = e.do(t, http.MethodPost, "/api/mail/settings", gin.H{
		"goal_id":         goalID,
		"recipient_email": "other@example.com",
		"enabled":         false,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = e.do(t, http.MethodGet, "/api/mail/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Settings []settingsResponse `json:"settings"`
		Total    int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "other@example.com", list.Settings[0].RecipientEmail)

	w = e.do(t, http.MethodPut, "/api/mail/settings/"+goalID.String(), gin.H{"send_day": 28})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodGet, "/api/mail/settings/"+goalID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched settingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, 28, *fetched.SendDay)

	w = e.do(t, http.MethodDelete, "/api/mail/settings/"+goalID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = e.do(t, http.MethodGet, "/api/mail/settings/"+goalID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateSettingsKeepsLastSentAt(t *testing.T) {
	e := newTestEnv(t)
	goalID := uuid.New()

	setting, err := e.store.UpsertSettings("google_12345", goalID, "jane@example.com", true, 15)
	require.NoError(t, err)

	sentAt := time.Date(2026, time.January, 15, 12, 0, 0, 0, time.UTC)
	_, err = e.store.MarkSent(setting.MailID, nil, sentAt)
	require.NoError(t, err)

	w := e.do(t, http.MethodPut, "/api/mail/settings/"+goalID.String(), gin.H{"recipient_email": "other@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := e.store.SettingsByGoal("google_12345", goalID)
	require.NoError(t, err)
	assert.Equal(t, "other@example.com", stored.Recipient)
	require.NotNil(t, stored.LastSentAt)
	assert.Equal(t, sentAt, stored.LastSentAt.UTC())
}

func TestUpsertSettingsValidation(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/mail/settings", gin.H{
		"goal_id":         uuid.New(),
		"recipient_email": "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodPost, "/api/mail/settings", gin.H{
		"goal_id":         uuid.New(),
		"recipient_email": "jane@example.com",
		"send_day":        32,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendNow(t *testing.T) {
	e := newTestEnv(t)
	goalID := uuid.New()

	_, err := e.store.UpsertSettings("google_12345", goalID, "jane@example.com", true, 15)
	require.NoError(t, err)

	w := e.do(t, http.MethodPost, "/api/mail/send-now", gin.H{"goal_id": goalID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, e.dispatcher.sent)

	setting, err := e.store.SettingsByGoal("google_12345", goalID)
	require.NoError(t, err)
	assert.NotNil(t, setting.LastSentAt)
	assert.Equal(t, models.StatusSent, setting.Status)
}

func TestSendNowWithoutSettings(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/mail/send-now", gin.H{"goal_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendNowErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		composeErr error
		wantStatus int
	}{
		{name: "missing pdf", composeErr: fmt.Errorf("pdf: %w", clients.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "timeout", composeErr: fmt.Errorf("entries: %w", clients.ErrTimeout), wantStatus: http.StatusGatewayTimeout},
		{name: "connect", composeErr: fmt.Errorf("entries: %w", clients.ErrConnect), wantStatus: http.StatusBadGateway},
		{name: "upstream 500", composeErr: &clients.UpstreamError{Service: "pdf", StatusCode: 500}, wantStatus: http.StatusBadGateway},
		{name: "other", composeErr: fmt.Errorf("template failed"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			goalID := uuid.New()
			_, err := e.store.UpsertSettings("google_12345", goalID, "jane@example.com", true, 15)
			require.NoError(t, err)

			e.composer.err = tt.composeErr
			w := e.do(t, http.MethodPost, "/api/mail/send-now", gin.H{"goal_id": goalID})
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestMailRecordLifecycle(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/api/mail", gin.H{
		"recipient": "jane@example.com",
		"subject":   "Hello",
		"body":      "World",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Mail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.StatusPending, created.Status)

	w = e.do(t, http.MethodPut, "/api/mail/"+created.MailID.String(), gin.H{"subject": "Updated"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPost, "/api/mail/"+created.MailID.String()+"/send", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// A sent record refuses re-send, update and delete.
	w = e.do(t, http.MethodPost, "/api/mail/"+created.MailID.String()+"/send", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(t, http.MethodPut, "/api/mail/"+created.MailID.String(), gin.H{"subject": "Again"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = e.do(t, http.MethodDelete, "/api/mail/"+created.MailID.String(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMailFailureRecordsError(t *testing.T) {
	e := newTestEnv(t)
	e.dispatcher.err = fmt.Errorf("smtp rejected")

	mail := &models.Mail{OwnerUserID: "google_12345", Recipient: "jane@example.com", Subject: "Hello", Body: "World"}
	require.NoError(t, e.store.CreateMail(mail))

	w := e.do(t, http.MethodPost, "/api/mail/"+mail.MailID.String()+"/send", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	stored, err := e.store.GetMail("google_12345", mail.MailID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "smtp rejected")
}

func TestSendBatchIsolatesFailures(t *testing.T) {
	e := newTestEnv(t)

	draft := &models.Mail{OwnerUserID: "google_12345", Recipient: "jane@example.com", Subject: "Hello", Body: "World"}
	require.NoError(t, e.store.CreateMail(draft))

	sentAt := time.Now().UTC()
	already := &models.Mail{OwnerUserID: "google_12345", Recipient: "jane@example.com", Subject: "Hello", Body: "World", Status: models.StatusSent, SentAt: &sentAt}
	require.NoError(t, e.store.CreateMail(already))

	missing := uuid.New()

	w := e.do(t, http.MethodPost, "/api/mail/batch/send", []uuid.UUID{draft.MailID, already.MailID, missing})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total   int          `json:"total"`
		Results []sendResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Total)
	assert.Equal(t, string(models.StatusSent), resp.Results[0].Status)
	assert.Equal(t, string(models.StatusSkipped), resp.Results[1].Status)
	assert.Equal(t, string(models.StatusFailed), resp.Results[2].Status)
}

func TestListMailsPagination(t *testing.T) {
	e := newTestEnv(t)

	for i := 0; i < 3; i++ {
		mail := &models.Mail{OwnerUserID: "google_12345", Recipient: "jane@example.com", Subject: "Hello"}
		require.NoError(t, e.store.CreateMail(mail))
	}

	w := e.do(t, http.MethodGet, "/api/mail?page=1&page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Mails []models.Mail `json:"mails"`
		Total int64         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 3, resp.Total)
	assert.Len(t, resp.Mails, 2)
}
