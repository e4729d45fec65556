// Package provider is the HTTP client for the delivery bots. Each bot
// exposes the same surface: an eligibility check, a delivery call, a status
// probe and a friend-request endpoint.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"lobomat-api/internal/model"
)

// Recoverable delivery error codes. These are the ONLY provider failures
// that justify falling back to the next provider; everything else is
// systemic and terminal.
const (
	ErrCodeInsufficientBalance = "insufficient-balance"
	ErrCodeNotFriend           = "not-friend"
)

// Client talks to delivery providers. One client serves the whole ordered
// provider list; the target provider is passed per call.
type Client struct {
	http *http.Client
}

// NewClient creates a provider client. timeout bounds every call; a timeout
// is reported as a plain error and treated as systemic by the workflow.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// EligibilityResult is the provider's answer to the friendship check.
type EligibilityResult struct {
	IsFriend        bool    `json:"isFriend"`
	HasMinTime      bool    `json:"hasMinTime"`
	FriendshipHours float64 `json:"friendshipHours"`
}

// DeliveryRequest is the body of a delivery attempt.
type DeliveryRequest struct {
	RecipientUsername string `json:"recipientUsername"`
	OfferID           string `json:"offerId"`
	Price             int    `json:"price"`
	IsBundle          bool   `json:"isBundle"`
}

// DeliveryResult is the provider's answer to a delivery attempt. On failure
// Error carries the provider's error code and Message a human-readable
// description.
type DeliveryResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Recoverable reports whether this failure justifies trying the next
// provider.
func (r *DeliveryResult) Recoverable() bool {
	return r.Error == ErrCodeInsufficientBalance || r.Error == ErrCodeNotFriend
}

// CheckEligibility queries whether the recipient may receive gifts from
// this provider. Any transport failure, non-2xx status or malformed body is
// returned as an error.
func (c *Client) CheckEligibility(ctx context.Context, p model.DeliveryProvider, recipientUsername string) (*EligibilityResult, error) {
	endpoint := fmt.Sprintf("%s/eligibility/%s", p.BaseURL, url.PathEscape(recipientUsername))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("provider %s: failed to build eligibility request: %w", p.ID, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider %s: eligibility request failed: %w", p.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("provider %s: eligibility check returned status %d", p.ID, resp.StatusCode)
	}

	var result EligibilityResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("provider %s: malformed eligibility response: %w", p.ID, err)
	}
	return &result, nil
}

// Deliver issues a delivery attempt. A parseable failure body is returned
// as a DeliveryResult regardless of HTTP status, so the workflow can tell
// recoverable codes apart from systemic errors; transport failures and
// unparseable bodies come back as an error.
func (c *Client) Deliver(ctx context.Context, p model.DeliveryProvider, delivery DeliveryRequest) (*DeliveryResult, error) {
	body, err := json.Marshal(delivery)
	if err != nil {
		return nil, fmt.Errorf("provider %s: failed to encode delivery request: %w", p.ID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/deliver", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("provider %s: failed to build delivery request: %w", p.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider %s: delivery request failed: %w", p.ID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("provider %s: failed to read delivery response: %w", p.ID, err)
	}

	var result DeliveryResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("provider %s: malformed delivery response (status %d)", p.ID, resp.StatusCode)
	}

	if !result.Success && result.Error == "" && result.Message == "" {
		return nil, fmt.Errorf("provider %s: delivery returned status %d with no error detail", p.ID, resp.StatusCode)
	}
	return &result, nil
}

// Status probes the provider's bot status endpoint.
func (c *Client) Status(ctx context.Context, p model.DeliveryProvider) (*model.BotStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("provider %s: failed to build status request: %w", p.ID, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider %s: status request failed: %w", p.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider %s: status returned %d", p.ID, resp.StatusCode)
	}

	var status model.BotStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("provider %s: malformed status response: %w", p.ID, err)
	}
	return &status, nil
}

// SendFriendRequest asks the provider's bot to send the recipient a friend
// request, so the 48-hour gifting clock can start.
func (c *Client) SendFriendRequest(ctx context.Context, p model.DeliveryProvider, username string) error {
	body, err := json.Marshal(map[string]string{"username": username})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/friend-request", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("provider %s: failed to build friend request: %w", p.ID, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider %s: friend request failed: %w", p.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&failure); err == nil && failure.Error != "" {
			return fmt.Errorf("provider %s: friend request rejected: %s", p.ID, failure.Error)
		}
		return fmt.Errorf("provider %s: friend request returned status %d", p.ID, resp.StatusCode)
	}
	return nil
}
