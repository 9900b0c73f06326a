package ops

import (
	"github.com/dispatch-next/internal/http/handlers/shared"
	"github.com/dispatch-next/internal/http/response"
	"github.com/dispatch-next/internal/service"
)

var shipmentErrorRules = []shared.MappedHandlerError{
	{Target: service.ErrShipmentInvalid, Code: response.CodeBadRequest, Message: "shipment invalid"},
	{Target: service.ErrShipmentNotFound, Code: response.CodeNotFound, Message: "shipment not found"},
	{Target: service.ErrShipmentFetchFailed, Code: response.CodeInternal, Message: "shipment lookup failed"},
	{Target: service.ErrShipmentCreateFailed, Code: response.CodeInternal, Message: "shipment creation failed"},
	{Target: service.ErrShipmentUpdateFailed, Code: response.CodeInternal, Message: "shipment update failed"},
}

var statusChangeErrorRules = []shared.MappedHandlerError{
	{Target: service.ErrStatusUnknown, Code: response.CodeBadRequest, Message: "unknown shipment status"},
	{Target: service.ErrTransitionInvalid, Code: response.CodeBadRequest, Message: "status transition not allowed"},
	{Target: service.ErrAcknowledgmentNeeded, Code: response.CodeBadRequest, Message: "signature or photo acknowledgment required"},
	{Target: service.ErrSkipReasonRequired, Code: response.CodeBadRequest, Message: "skip reason required"},
	{Target: service.ErrReassignBlocked, Code: response.CodeConflict, Message: "shipment status blocks reassignment"},
	{Target: service.ErrRiderUnknown, Code: response.CodeBadRequest, Message: "rider not known upstream"},
}

var sessionErrorRules = []shared.MappedHandlerError{
	{Target: service.ErrSessionNotFound, Code: response.CodeNotFound, Message: "session not found"},
	{Target: service.ErrSessionNotActive, Code: response.CodeBadRequest, Message: "session is not active"},
	{Target: service.ErrSessionFetchFailed, Code: response.CodeInternal, Message: "session lookup failed"},
	{Target: service.ErrSessionUpdateFailed, Code: response.CodeInternal, Message: "session update failed"},
}
