package service

import "errors"

var (
	ErrShipmentInvalid      = errors.New("shipment data invalid")
	ErrShipmentNotFound     = errors.New("shipment not found")
	ErrShipmentFetchFailed  = errors.New("shipment fetch failed")
	ErrShipmentCreateFailed = errors.New("shipment create failed")
	ErrShipmentUpdateFailed = errors.New("shipment update failed")

	ErrStatusUnknown        = errors.New("status unknown")
	ErrTransitionInvalid    = errors.New("status transition invalid for shipment type")
	ErrAcknowledgmentNeeded = errors.New("acknowledgment required for transition")
	ErrSkipReasonRequired   = errors.New("skip reason required")
	ErrReassignBlocked      = errors.New("rider reassignment blocked by status")
	ErrRiderUnknown         = errors.New("rider not known upstream")

	ErrEventInvalid      = errors.New("event data invalid")
	ErrEventCreateFailed = errors.New("event create failed")

	ErrSessionNotFound      = errors.New("route session not found")
	ErrSessionNotActive     = errors.New("route session not active")
	ErrSessionOwnership     = errors.New("route session owned by another rider")
	ErrSessionAlreadyActive = errors.New("rider already has an active session")
	ErrSessionFetchFailed   = errors.New("route session fetch failed")
	ErrSessionUpdateFailed  = errors.New("route session update failed")

	ErrTrackingInvalid   = errors.New("tracking point invalid")
	ErrTrackingBatchSize = errors.New("tracking batch too large")

	ErrWebhookInvalid = errors.New("webhook payload invalid")
)
