// Package rider holds the courier-facing API handlers: route sessions,
// GPS tracking, pickup/delivery events, and path optimization.
package rider

import "github.com/dispatch-next/internal/provider"

// Handler rider API handler entry
type Handler struct {
	*provider.Container
}

// New creates the rider handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
