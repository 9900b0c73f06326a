package service

import (
	"errors"
	"testing"

	"github.com/dispatch-next/internal/constants"
)

func TestValidateTransitionTypeCompatibility(t *testing.T) {
	err := ValidateTransition(TransitionInput{
		ShipmentType: constants.ShipmentTypePickup,
		ToStatus:     constants.ShipmentStatusDelivered,
		HasAck:       true,
		IsManager:    true,
	})
	if !errors.Is(err, ErrTransitionInvalid) {
		t.Fatalf("pickup shipment must never reach Delivered, got: %v", err)
	}

	err = ValidateTransition(TransitionInput{
		ShipmentType: constants.ShipmentTypeDelivery,
		ToStatus:     constants.ShipmentStatusPickedUp,
		HasAck:       true,
		IsManager:    true,
	})
	if !errors.Is(err, ErrTransitionInvalid) {
		t.Fatalf("delivery shipment must never reach Picked Up, got: %v", err)
	}

	err = ValidateTransition(TransitionInput{
		ShipmentType: constants.ShipmentTypePickup,
		ToStatus:     constants.ShipmentStatusCollected,
	})
	if !errors.Is(err, ErrTransitionInvalid) {
		t.Fatalf("pickup shipment must never reach Collected, got: %v", err)
	}
}

func TestValidateTransitionAcknowledgment(t *testing.T) {
	err := ValidateTransition(TransitionInput{
		ShipmentType: constants.ShipmentTypeDelivery,
		ToStatus:     constants.ShipmentStatusDelivered,
	})
	if !errors.Is(err, ErrAcknowledgmentNeeded) {
		t.Fatalf("expected acknowledgment requirement, got: %v", err)
	}

	// either artifact satisfies the requirement
	if err := ValidateTransition(TransitionInput{
		ShipmentType: constants.ShipmentTypeDelivery,
		ToStatus:     constants.ShipmentStatusDelivered,
		HasAck:       true,
	}); err != nil {
		t.Fatalf("transition with acknowledgment should pass: %v", err)
	}

	// manager role bypasses the requirement
	if err := ValidateTransition(TransitionInput{
		ShipmentType: constants.ShipmentTypePickup,
		ToStatus:     constants.ShipmentStatusPickedUp,
		IsManager:    true,
	}); err != nil {
		t.Fatalf("manager transition without acknowledgment should pass: %v", err)
	}
}

func TestValidateTransitionSkipReason(t *testing.T) {
	err := ValidateTransition(TransitionInput{
		ShipmentType: constants.ShipmentTypeDelivery,
		ToStatus:     constants.ShipmentStatusSkipped,
		SkipReason:   "   ",
	})
	if !errors.Is(err, ErrSkipReasonRequired) {
		t.Fatalf("expected skip reason requirement, got: %v", err)
	}

	if err := ValidateTransition(TransitionInput{
		ShipmentType: constants.ShipmentTypeDelivery,
		ToStatus:     constants.ShipmentStatusSkipped,
		SkipReason:   "customer unavailable",
	}); err != nil {
		t.Fatalf("skip with reason should pass: %v", err)
	}
}

func TestValidateTransitionUnknownStatus(t *testing.T) {
	err := ValidateTransition(TransitionInput{
		ShipmentType: constants.ShipmentTypeDelivery,
		ToStatus:     "Warehoused",
	})
	if !errors.Is(err, ErrStatusUnknown) {
		t.Fatalf("expected unknown status error, got: %v", err)
	}
}

func TestValidateTransitionUnrestrictedStatuses(t *testing.T) {
	for _, status := range []string{
		constants.ShipmentStatusAssigned,
		constants.ShipmentStatusInTransit,
		constants.ShipmentStatusReturned,
		constants.ShipmentStatusCancelled,
	} {
		if err := ValidateTransition(TransitionInput{
			ShipmentType: constants.ShipmentTypePickup,
			ToStatus:     status,
		}); err != nil {
			t.Fatalf("status %s should have no extra requirements: %v", status, err)
		}
	}
}
