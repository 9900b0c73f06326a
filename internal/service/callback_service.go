package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dispatch-next/internal/config"
	"github.com/dispatch-next/internal/logger"
	"github.com/dispatch-next/internal/models"
)

const (
	callbackSingleTimeout = 30 * time.Second
	callbackBatchTimeout  = 60 * time.Second
)

// CallbackService pushes shipment snapshots to the external caller that
// created the shipment, keyed by its origin tag. Outcomes are booleans,
// never errors: dispatch is best effort and must not block mutations.
type CallbackService struct {
	configs map[string]config.CallbackConfig
}

// NewCallbackService creates the callback dispatcher
func NewCallbackService(configs map[string]config.CallbackConfig) *CallbackService {
	if configs == nil {
		configs = map[string]config.CallbackConfig{}
	}
	return &CallbackService{configs: configs}
}

// shipmentSnapshot the fixed payload shape sent to callback consumers
type shipmentSnapshot struct {
	ShipmentID    uint     `json:"shipment_id"`
	ExternalUUID  string   `json:"external_uuid"`
	Type          string   `json:"type"`
	Status        string   `json:"status"`
	RiderID       string   `json:"rider_id,omitempty"`
	CustomerName  string   `json:"customer_name,omitempty"`
	CustomerPhone string   `json:"customer_phone,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	SignatureURL  string   `json:"signature_url,omitempty"`
	PhotoURL      string   `json:"photo_url,omitempty"`
	SignedDocURL  string   `json:"signed_doc_url,omitempty"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

func buildSnapshot(shipment *models.Shipment) shipmentSnapshot {
	return shipmentSnapshot{
		ShipmentID:    shipment.ID,
		ExternalUUID:  shipment.ExternalUUID,
		Type:          shipment.Type,
		Status:        shipment.Status,
		RiderID:       shipment.RiderID,
		CustomerName:  shipment.CustomerName,
		CustomerPhone: shipment.CustomerPhone,
		Latitude:      shipment.Latitude,
		Longitude:     shipment.Longitude,
		SignatureURL:  shipment.SignatureURL,
		PhotoURL:      shipment.PhotoURL,
		SignedDocURL:  shipment.SignedDocURL,
		CreatedAt:     shipment.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     shipment.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// SendShipmentUpdate notifies the shipment's origin about an event.
// No config or an inactive config means nothing to do and counts as
// success; an active config without a URL is a failure.
func (s *CallbackService) SendShipmentUpdate(ctx context.Context, shipment *models.Shipment, event string) bool {
	if shipment == nil {
		return false
	}
	cfg, ok := s.configs[shipment.APISource]
	if !ok || !cfg.Active {
		return true
	}
	if strings.TrimSpace(cfg.URL) == "" {
		logger.Warnw("callback_url_missing",
			"api_source", shipment.APISource,
			"shipment_id", shipment.ID,
		)
		return false
	}

	payload := map[string]interface{}{
		"event":     event,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"shipment":  buildSnapshot(shipment),
	}
	headers := map[string]string{
		"X-Shipment-ID":    fmt.Sprintf("%d", shipment.ID),
		"X-Shipment-Event": event,
	}
	if err := postCallback(ctx, cfg, payload, headers, callbackSingleTimeout); err != nil {
		logger.Warnw("callback_dispatch_failed",
			"api_source", shipment.APISource,
			"shipment_id", shipment.ID,
			"event", event,
			"error", err,
		)
		return false
	}
	logger.Infow("callback_dispatched",
		"api_source", shipment.APISource,
		"shipment_id", shipment.ID,
		"event", event,
	)
	return true
}

// SendShipmentBatch groups shipments by origin tag and sends one
// aggregated payload per tag. Every shipment in a group shares its
// group's outcome.
func (s *CallbackService) SendShipmentBatch(ctx context.Context, shipments []models.Shipment, event string) map[uint]bool {
	results := make(map[uint]bool, len(shipments))
	groups := map[string][]models.Shipment{}
	for _, shipment := range shipments {
		groups[shipment.APISource] = append(groups[shipment.APISource], shipment)
	}

	for source, group := range groups {
		cfg, ok := s.configs[source]
		if !ok || !cfg.Active {
			for _, shipment := range group {
				results[shipment.ID] = true
			}
			continue
		}
		outcome := true
		if strings.TrimSpace(cfg.URL) == "" {
			logger.Warnw("callback_url_missing", "api_source", source, "batch_size", len(group))
			outcome = false
		} else {
			snapshots := make([]shipmentSnapshot, 0, len(group))
			for i := range group {
				snapshots = append(snapshots, buildSnapshot(&group[i]))
			}
			payload := map[string]interface{}{
				"event":     event,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
				"shipments": snapshots,
			}
			headers := map[string]string{
				"X-Shipment-Event": event,
			}
			if err := postCallback(ctx, cfg, payload, headers, callbackBatchTimeout); err != nil {
				logger.Warnw("callback_batch_dispatch_failed",
					"api_source", source,
					"batch_size", len(group),
					"event", event,
					"error", err,
				)
				outcome = false
			}
		}
		for _, shipment := range group {
			results[shipment.ID] = outcome
		}
	}
	return results
}

func postCallback(ctx context.Context, cfg config.CallbackConfig, payload interface{}, headers map[string]string, timeout time.Duration) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if strings.TrimSpace(cfg.AuthToken) != "" {
		req.Header.Set("Authorization", cfg.AuthToken)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback http status %d", resp.StatusCode)
	}
	return nil
}
