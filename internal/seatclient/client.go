package seatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/nelonissle/kubernetes-bookingsystem/internal/auth"
	"github.com/nelonissle/kubernetes-bookingsystem/internal/domain"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// Client talks to the Inventory Ledger over HTTP. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

// GetFlight fetches the current flight record. Every failure, including an
// unknown flight, is reported as ErrAvailabilityCheckFailed.
func (c *Client) GetFlight(ctx context.Context, flightRef string) (*domain.Flight, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/flight/"+url.PathEscape(flightRef), nil)
	if err != nil {
		return nil, errors.Wrap(domain.ErrAvailabilityCheckFailed, err.Error())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(domain.ErrAvailabilityCheckFailed, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrap(domain.ErrAvailabilityCheckFailed, statusDetail(resp))
	}

	var flight domain.Flight
	if err := json.NewDecoder(resp.Body).Decode(&flight); err != nil {
		return nil, errors.Wrap(domain.ErrAvailabilityCheckFailed, "decode flight: "+err.Error())
	}
	return &flight, nil
}

// DecrementSeats asks the ledger to subtract count seats. The body is a bare
// JSON integer. Any transport failure or non-2xx answer is ErrReservationFailed.
func (c *Client) DecrementSeats(ctx context.Context, flightRef string, count int, idempotencyKey string) error {
	body := []byte(strconv.Itoa(count))
	req, err := c.newRequest(ctx, http.MethodPut, "/flight/updateSeats/"+url.PathEscape(flightRef), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(domain.ErrReservationFailed, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set(IdempotencyKeyHeader, idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(domain.ErrReservationFailed, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Wrap(domain.ErrReservationFailed, statusDetail(resp))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if credential := auth.CredentialFromContext(ctx); credential != "" {
		req.Header.Set("Authorization", credential)
	}
	return req, nil
}

func statusDetail(resp *http.Response) string {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Sprintf("ledger answered %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}
