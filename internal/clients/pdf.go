package clients

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PDFClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPDFClient(baseURL string) *PDFClient {
	return &PDFClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// Rendering a full report can take a while, so this client gets
		// the longest budget of the three.
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// RenderGoalReport streams the rendered PDF for a goal. The PDF Service
// renders the goal's current state; the call is not parameterized by report
// month. A 404 is a hard error here: a report cannot ship without its
// attachment.
func (c *PDFClient) RenderGoalReport(ctx context.Context, goalID uuid.UUID, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/pdf/goal/%s/stream", c.baseURL, goalID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport("pdf", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read pdf stream: %v", err)
		}
		return data, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("pdf for goal %s: %w", goalID, ErrNotFound)
	default:
		return nil, &UpstreamError{Service: "pdf", StatusCode: resp.StatusCode}
	}
}
