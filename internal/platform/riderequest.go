// HTTP client for the platform's ride-request service.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"drover/internal/modules/bid"
	"drover/internal/types"
)

type RideRequestClient struct {
	baseURL string
	http    *http.Client
}

func NewRideRequestClient(baseURL string) *RideRequestClient {
	return &RideRequestClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type submitBidReq struct {
	AmountCents int64 `json:"amount_cents"`
}

type submitBidErrResp struct {
	Code         string `json:"code"`
	Reason       string `json:"reason"`
	RetrySeconds int    `json:"retry_seconds"`
}

// SubmitBid posts the frozen bid amount. Non-2xx responses map onto the
// typed submit errors the session surfaces: 429 -> cooldown (with the
// service-provided retry window), 423 -> locked, transport failure ->
// network, anything else -> unknown.
func (c *RideRequestClient) SubmitBid(ctx context.Context, rideRequestID types.ID, amount int64) error {
	body, _ := json.Marshal(submitBidReq{AmountCents: amount})
	url := fmt.Sprintf("%s/api/ride-requests/%s/bids", c.baseURL, string(rideRequestID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &bid.SubmitError{Code: bid.CodeUnknown, Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &bid.SubmitError{Code: bid.CodeNetwork, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var er submitBidErrResp
	_ = json.NewDecoder(resp.Body).Decode(&er)
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return &bid.SubmitError{Code: bid.CodeCooldown, RetrySeconds: er.RetrySeconds, Reason: er.Reason}
	case http.StatusLocked:
		return &bid.SubmitError{Code: bid.CodeLocked, Reason: er.Reason}
	default:
		reason := er.Reason
		if reason == "" {
			reason = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return &bid.SubmitError{Code: bid.CodeUnknown, Reason: reason}
	}
}

// DeclineRideRequest is best-effort; callers log and move on.
func (c *RideRequestClient) DeclineRideRequest(ctx context.Context, rideRequestID types.ID) error {
	url := fmt.Sprintf("%s/api/ride-requests/%s/decline", c.baseURL, string(rideRequestID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("decline ride request: unexpected status %d", resp.StatusCode)
	}
	return nil
}
