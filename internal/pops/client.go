// Package pops talks to the upstream order-processing system (POPS): the
// source of truth for order creation and the target of shipment status
// synchronization.
package pops

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dispatch-next/internal/config"
	"github.com/dispatch-next/internal/constants"
)

var (
	ErrConfigInvalid   = errors.New("pops config invalid")
	ErrTokenMissing    = errors.New("pops access token missing")
	ErrRequestFailed   = errors.New("pops request failed")
	ErrResponseInvalid = errors.New("pops response invalid")
	ErrStatusUnmapped  = errors.New("pops status not mapped")
)

// statusMap fixed lookup from internal status vocabulary to POPS vocabulary.
var statusMap = map[string]string{
	constants.ShipmentStatusInitiated: "CREATED",
	constants.ShipmentStatusAssigned:  "ASSIGNED",
	constants.ShipmentStatusCollected: "COLLECTED",
	constants.ShipmentStatusInTransit: "IN_TRANSIT",
	constants.ShipmentStatusDelivered: "DELIVERED",
	constants.ShipmentStatusPickedUp:  "PICKED_UP",
	constants.ShipmentStatusReturned:  "RETURNED",
	constants.ShipmentStatusCancelled: "CANCELLED",
	constants.ShipmentStatusSkipped:   "SKIPPED",
}

// inboundStatusMap fixed lookup from POPS vocabulary to internal statuses,
// used by the inbound status-update webhook.
var inboundStatusMap = map[string]string{
	"CREATED":    constants.ShipmentStatusInitiated,
	"ASSIGNED":   constants.ShipmentStatusAssigned,
	"COLLECTED":  constants.ShipmentStatusCollected,
	"IN_TRANSIT": constants.ShipmentStatusInTransit,
	"DELIVERED":  constants.ShipmentStatusDelivered,
	"PICKED_UP":  constants.ShipmentStatusPickedUp,
	"RETURNED":   constants.ShipmentStatusReturned,
	"CANCELLED":  constants.ShipmentStatusCancelled,
	"SKIPPED":    constants.ShipmentStatusSkipped,
}

// MapStatus translates an internal status to the POPS vocabulary
func MapStatus(internal string) (string, error) {
	mapped, ok := statusMap[strings.TrimSpace(internal)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrStatusUnmapped, internal)
	}
	return mapped, nil
}

// MapInboundStatus translates a POPS status to the internal vocabulary
func MapInboundStatus(external string) (string, bool) {
	mapped, ok := inboundStatusMap[strings.ToUpper(strings.TrimSpace(external))]
	return mapped, ok
}

// Rider rider record as POPS reports it
type Rider struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Active bool   `json:"active"`
}

// Client POPS HTTP client
type Client struct {
	baseURL          string
	accessToken      string
	legacyStatusPath string
	httpClient       *http.Client
}

// NewClient builds a client from configuration. A missing access token is
// not an error here; every call checks it so the failure is recorded per
// attempt, as sync bookkeeping requires.
func NewClient(cfg *config.POPSConfig) *Client {
	if cfg == nil {
		return &Client{httpClient: &http.Client{Timeout: 10 * time.Second}}
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	legacyPath := strings.TrimSpace(cfg.LegacyStatusPath)
	if legacyPath == "" {
		legacyPath = "/api/orders/%d/status"
	}
	return &Client{
		baseURL:          strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		accessToken:      strings.TrimSpace(cfg.AccessToken),
		legacyStatusPath: legacyPath,
		httpClient:       &http.Client{Timeout: timeout},
	}
}

// Configured reports whether the client can reach POPS at all
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// UpdateOrderFields PATCHes arbitrary fields on the upstream order. If the
// primary endpoint is unavailable (404/405/501) it falls back to the legacy
// status-only endpoint when a status field is present.
func (c *Client) UpdateOrderFields(ctx context.Context, orderID int64, fields map[string]interface{}) error {
	if err := c.check(orderID); err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/api/orders/%d", c.baseURL, orderID)
	status, err := c.do(ctx, http.MethodPatch, endpoint, fields)
	if err == nil {
		return nil
	}
	if status == http.StatusNotFound || status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented {
		if s, ok := fields["status"].(string); ok && s != "" {
			return c.UpdateOrderStatus(ctx, orderID, s)
		}
	}
	return err
}

// UpdateOrderStatus posts to the legacy status-only endpoint
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, popsStatus string) error {
	if err := c.check(orderID); err != nil {
		return err
	}
	endpoint := c.baseURL + fmt.Sprintf(c.legacyStatusPath, orderID)
	_, err := c.do(ctx, http.MethodPost, endpoint, map[string]interface{}{
		"status": popsStatus,
	})
	return err
}

// FetchRiderByID reads a rider record from POPS. A 404 is a definite
// not-found answer and returns nil without error.
func (c *Client) FetchRiderByID(ctx context.Context, riderID string) (*Rider, error) {
	if !c.Configured() {
		return nil, ErrConfigInvalid
	}
	if c.accessToken == "" {
		return nil, ErrTokenMissing
	}
	endpoint := fmt.Sprintf("%s/api/riders/%s", c.baseURL, riderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	var rider Rider
	if err := json.Unmarshal(body, &rider); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return &rider, nil
}

func (c *Client) check(orderID int64) error {
	if !c.Configured() {
		return ErrConfigInvalid
	}
	if c.accessToken == "" {
		return ErrTokenMissing
	}
	if orderID <= 0 {
		return fmt.Errorf("%w: order id %d", ErrConfigInvalid, orderID)
	}
	return nil
}

// do performs a JSON request and returns the HTTP status with any error.
func (c *Client) do(ctx context.Context, method, endpoint string, payload map[string]interface{}) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
}
