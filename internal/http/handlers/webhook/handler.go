// Package webhook holds the inbound POPS notification endpoints.
package webhook

import "github.com/dispatch-next/internal/provider"

// Handler webhook handler entry
type Handler struct {
	*provider.Container
}

// New creates the webhook handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
