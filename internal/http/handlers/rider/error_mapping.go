package rider

import (
	"github.com/dispatch-next/internal/http/handlers/shared"
	"github.com/dispatch-next/internal/http/response"
	"github.com/dispatch-next/internal/service"
)

var sessionErrorRules = []shared.MappedHandlerError{
	{Target: service.ErrSessionNotFound, Code: response.CodeNotFound, Message: "session not found"},
	{Target: service.ErrSessionNotActive, Code: response.CodeBadRequest, Message: "session is not active"},
	{Target: service.ErrSessionOwnership, Code: response.CodeForbidden, Message: "session belongs to another rider"},
	{Target: service.ErrSessionAlreadyActive, Code: response.CodeConflict, Message: "an active session already exists"},
	{Target: service.ErrSessionFetchFailed, Code: response.CodeInternal, Message: "session lookup failed"},
	{Target: service.ErrSessionUpdateFailed, Code: response.CodeInternal, Message: "session update failed"},
}

var trackingErrorRules = []shared.MappedHandlerError{
	{Target: service.ErrTrackingInvalid, Code: response.CodeBadRequest, Message: "tracking point invalid"},
	{Target: service.ErrTrackingBatchSize, Code: response.CodeBadRequest, Message: "too many points in one batch"},
}

var shipmentEventErrorRules = []shared.MappedHandlerError{
	{Target: service.ErrShipmentNotFound, Code: response.CodeNotFound, Message: "shipment not found"},
	{Target: service.ErrStatusUnknown, Code: response.CodeBadRequest, Message: "unknown shipment status"},
	{Target: service.ErrTransitionInvalid, Code: response.CodeBadRequest, Message: "status transition not allowed"},
	{Target: service.ErrAcknowledgmentNeeded, Code: response.CodeBadRequest, Message: "signature or photo acknowledgment required"},
	{Target: service.ErrSkipReasonRequired, Code: response.CodeBadRequest, Message: "skip reason required"},
}
