package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dispatch-next/internal/config"
	"github.com/dispatch-next/internal/constants"
	"github.com/dispatch-next/internal/models"
)

func callbackTestShipment(id uint, source string) *models.Shipment {
	now := time.Now()
	return &models.Shipment{
		ID:           id,
		ExternalUUID: "uuid-cb",
		Type:         constants.ShipmentTypeDelivery,
		Status:       constants.ShipmentStatusInTransit,
		APISource:    source,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestSendShipmentUpdateNoConfigIsSuccess(t *testing.T) {
	svc := NewCallbackService(nil)
	if !svc.SendShipmentUpdate(context.Background(), callbackTestShipment(1, "unknown"), "status_change") {
		t.Fatalf("absent config must count as success")
	}
}

func TestSendShipmentUpdateInactiveIsSuccess(t *testing.T) {
	svc := NewCallbackService(map[string]config.CallbackConfig{
		"storefront": {URL: "http://localhost:1", Active: false},
	})
	if !svc.SendShipmentUpdate(context.Background(), callbackTestShipment(1, "storefront"), "status_change") {
		t.Fatalf("inactive config must count as success")
	}
}

func TestSendShipmentUpdateActiveWithoutURLFails(t *testing.T) {
	svc := NewCallbackService(map[string]config.CallbackConfig{
		"storefront": {URL: "", Active: true},
	})
	if svc.SendShipmentUpdate(context.Background(), callbackTestShipment(1, "storefront"), "status_change") {
		t.Fatalf("active config without url must fail")
	}
}

func TestSendShipmentUpdatePostsSnapshot(t *testing.T) {
	var gotHeaders http.Header
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	svc := NewCallbackService(map[string]config.CallbackConfig{
		"storefront": {URL: server.URL, Active: true, AuthToken: "secret"},
	})
	ok := svc.SendShipmentUpdate(context.Background(), callbackTestShipment(42, "storefront"), "status_change")
	if !ok {
		t.Fatalf("dispatch should succeed on 202")
	}
	if gotHeaders.Get("X-Shipment-ID") != "42" {
		t.Fatalf("shipment id header missing: %v", gotHeaders)
	}
	if gotHeaders.Get("X-Shipment-Event") != "status_change" {
		t.Fatalf("event header missing: %v", gotHeaders)
	}
	if gotHeaders.Get("Authorization") != "secret" {
		t.Fatalf("auth header missing: %v", gotHeaders)
	}
	if gotBody["event"] != "status_change" {
		t.Fatalf("event not in payload: %v", gotBody)
	}
	snapshot, ok := gotBody["shipment"].(map[string]interface{})
	if !ok {
		t.Fatalf("snapshot missing: %v", gotBody)
	}
	if snapshot["shipment_id"] != float64(42) || snapshot["status"] != constants.ShipmentStatusInTransit {
		t.Fatalf("unexpected snapshot: %v", snapshot)
	}
}

func TestSendShipmentUpdateNon2xxFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewCallbackService(map[string]config.CallbackConfig{
		"storefront": {URL: server.URL, Active: true},
	})
	if svc.SendShipmentUpdate(context.Background(), callbackTestShipment(1, "storefront"), "status_change") {
		t.Fatalf("non-2xx must fail")
	}
}

func TestSendShipmentBatchGroupsByOrigin(t *testing.T) {
	var calls int
	var lastBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewDecoder(r.Body).Decode(&lastBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewCallbackService(map[string]config.CallbackConfig{
		"storefront": {URL: server.URL, Active: true},
		"broken":     {URL: "", Active: true},
	})
	shipments := []models.Shipment{
		*callbackTestShipment(1, "storefront"),
		*callbackTestShipment(2, "storefront"),
		*callbackTestShipment(3, "broken"),
		*callbackTestShipment(4, "silent"),
	}

	results := svc.SendShipmentBatch(context.Background(), shipments, "status_change")
	if calls != 1 {
		t.Fatalf("expected one aggregated call for storefront, got %d", calls)
	}
	if !results[1] || !results[2] {
		t.Fatalf("storefront group should succeed: %v", results)
	}
	if results[3] {
		t.Fatalf("active config without url must mark its group failed")
	}
	if !results[4] {
		t.Fatalf("unconfigured origin counts as success")
	}
	grouped, ok := lastBody["shipments"].([]interface{})
	if !ok || len(grouped) != 2 {
		t.Fatalf("aggregated payload missing shipments: %v", lastBody)
	}
}
