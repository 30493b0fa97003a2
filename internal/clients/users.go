package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Profile is the User Service view of an account. The zero value stands for
// "profile unavailable" and triggers the display-name fallback chain.
type Profile struct {
	UserID      string `json:"user_id"`
	FullName    string `json:"full_name"`
	GoogleEmail string `json:"google_email"`
}

type UsersClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewUsersClient(baseURL string) *UsersClient {
	return &UsersClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Profile looks up the user's account. Any upstream failure is returned as
// an error alongside a zero profile; callers that can render a report
// without the profile are expected to fall back rather than abort.
func (c *UsersClient) Profile(ctx context.Context, userID, token string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/users/"+userID, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Profile{}, classifyTransport("user", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return Profile{}, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return Profile{}, &UpstreamError{Service: "user", StatusCode: resp.StatusCode}
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return Profile{}, fmt.Errorf("failed to decode user response: %v", err)
	}
	return profile, nil
}
