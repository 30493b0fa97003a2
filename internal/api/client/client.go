package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/trackify/mailer/internal/models"
)

// Client is the typed HTTP client the operator CLI uses against a running
// mailer service.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient() (*Client, error) {
	baseURL := os.Getenv("TRACKIFY_MAIL_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8002"
	}

	token := os.Getenv("TRACKIFY_MAIL_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TRACKIFY_MAIL_TOKEN environment variable is not set")
	}

	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}, nil
}

type Settings struct {
	MailID         uuid.UUID  `json:"mail_id"`
	GoalID         *uuid.UUID `json:"goal_id"`
	OwnerUserID    string     `json:"owner_user_id"`
	RecipientEmail string     `json:"recipient_email"`
	Enabled        bool       `json:"enabled"`
	SendDay        *int       `json:"send_day"`
	Status         string     `json:"status"`
	ErrorMessage   string     `json:"error_message"`
	LastSentAt     *time.Time `json:"last_sent_at"`
}

type SendResult struct {
	MailID  uuid.UUID  `json:"mail_id"`
	Status  string     `json:"status"`
	Message string     `json:"message"`
	SentAt  *time.Time `json:"sent_at"`
}

func (c *Client) ListSettings() ([]Settings, error) {
	var out struct {
		Settings []Settings `json:"settings"`
	}
	if err := c.get("/api/mail/settings", &out); err != nil {
		return nil, err
	}
	return out.Settings, nil
}

func (c *Client) UpsertSettings(goalID uuid.UUID, recipient string, enabled bool, sendDay int) (*Settings, error) {
	data := map[string]interface{}{
		"goal_id":         goalID,
		"recipient_email": recipient,
		"enabled":         enabled,
		"send_day":        sendDay,
	}
	var out Settings
	if err := c.post("/api/mail/settings", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSettings(goalID uuid.UUID) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/api/mail/settings/%s", goalID), nil, nil)
}

func (c *Client) SendNow(goalID uuid.UUID) (*SendResult, error) {
	data := map[string]interface{}{"goal_id": goalID}
	var out SendResult
	if err := c.post("/api/mail/send-now", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListMails(page, pageSize int, status string) ([]models.Mail, int64, error) {
	query := url.Values{}
	query.Set("page", fmt.Sprintf("%d", page))
	query.Set("page_size", fmt.Sprintf("%d", pageSize))
	if status != "" {
		query.Set("status", status)
	}

	var out struct {
		Mails []models.Mail `json:"mails"`
		Total int64         `json:"total"`
	}
	if err := c.get("/api/mail?"+query.Encode(), &out); err != nil {
		return nil, 0, err
	}
	return out.Mails, out.Total, nil
}

func (c *Client) get(endpoint string, v interface{}) error {
	return c.do(http.MethodGet, endpoint, nil, v)
}

func (c *Client) post(endpoint string, data, v interface{}) error {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %v", err)
		}
		body = bytes.NewReader(jsonData)
	}
	return c.do(http.MethodPost, endpoint, body, v)
}

func (c *Client) do(method, endpoint string, body io.Reader, v interface{}) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %v", err)
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %v", err)
	}
	u.Path = path.Join(u.Path, parsed.Path)
	u.RawQuery = parsed.RawQuery

	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("API error: %s", errResp.Error)
		}
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if v != nil {
		return json.NewDecoder(resp.Body).Decode(v)
	}
	return nil
}
