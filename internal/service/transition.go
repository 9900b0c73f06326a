package service

import (
	"strings"

	"github.com/dispatch-next/internal/constants"
)

// TransitionInput everything the validator needs to judge a status change.
// Every entry point (direct update, batch, GPS-driven events, webhooks)
// runs through this one table before touching the status engine.
type TransitionInput struct {
	ShipmentType string
	ToStatus     string
	HasAck       bool
	IsManager    bool
	SkipReason   string
}

// transitionRule per-target-status requirements
type transitionRule struct {
	requiresAck    bool // waived for manager-role actors
	requiresReason bool
	deniedForTypes []string
}

// transitionRules the central (type, toStatus) legality table. Statuses
// absent from the table accept any shipment type with no extra
// requirements; unknown statuses are rejected before lookup.
var transitionRules = map[string]transitionRule{
	constants.ShipmentStatusDelivered: {
		requiresAck:    true,
		deniedForTypes: []string{constants.ShipmentTypePickup},
	},
	constants.ShipmentStatusPickedUp: {
		requiresAck:    true,
		deniedForTypes: []string{constants.ShipmentTypeDelivery},
	},
	constants.ShipmentStatusCollected: {
		deniedForTypes: []string{constants.ShipmentTypePickup},
	},
	constants.ShipmentStatusSkipped: {
		requiresReason: true,
	},
}

var knownStatuses = map[string]struct{}{
	constants.ShipmentStatusInitiated: {},
	constants.ShipmentStatusAssigned:  {},
	constants.ShipmentStatusCollected: {},
	constants.ShipmentStatusInTransit: {},
	constants.ShipmentStatusDelivered: {},
	constants.ShipmentStatusPickedUp:  {},
	constants.ShipmentStatusReturned:  {},
	constants.ShipmentStatusCancelled: {},
	constants.ShipmentStatusSkipped:   {},
	constants.ShipmentStatusDeleted:   {},
}

// ValidStatus reports whether the status belongs to the closed vocabulary
func ValidStatus(status string) bool {
	_, ok := knownStatuses[status]
	return ok
}

// ValidateTransition checks a status change against the central rule
// table. It judges legality only; the status engine applies the change.
func ValidateTransition(input TransitionInput) error {
	if !ValidStatus(input.ToStatus) {
		return ErrStatusUnknown
	}
	rule, ok := transitionRules[input.ToStatus]
	if !ok {
		return nil
	}
	for _, denied := range rule.deniedForTypes {
		if input.ShipmentType == denied {
			return ErrTransitionInvalid
		}
	}
	if rule.requiresAck && !input.HasAck && !input.IsManager {
		return ErrAcknowledgmentNeeded
	}
	if rule.requiresReason && strings.TrimSpace(input.SkipReason) == "" {
		return ErrSkipReasonRequired
	}
	return nil
}
