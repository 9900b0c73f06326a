// Package ops holds the dispatcher/manager API handlers: shipment
// lifecycle, batch operations, sync triggers, and fleet oversight.
package ops

import "github.com/dispatch-next/internal/provider"

// Handler ops API handler entry
type Handler struct {
	*provider.Container
}

// New creates the ops handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
