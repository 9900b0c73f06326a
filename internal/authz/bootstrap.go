package authz

import (
	"fmt"

	"github.com/dispatch-next/internal/constants"
)

// RoleSeed builtin role definition
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds returns the builtin role matrix.
// Riders get the courier-facing surface, dispatchers get the ops
// surface, managers inherit both plus role administration.
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role:      constants.RoleRider,
			Immutable: true,
			Policies: []Policy{
				{Object: "/rider/sessions", Action: "*"},
				{Object: "/rider/sessions/:id", Action: "*"},
				{Object: "/rider/sessions/:id/stop", Action: "POST"},
				{Object: "/rider/sessions/:id/pause", Action: "POST"},
				{Object: "/rider/track", Action: "POST"},
				{Object: "/rider/track/batch", Action: "POST"},
				{Object: "/rider/location", Action: "GET"},
				{Object: "/rider/shipments/events", Action: "POST"},
				{Object: "/rider/shipments/events/bulk", Action: "POST"},
				{Object: "/rider/route/optimize", Action: "POST"},
			},
		},
		{
			Role:      constants.RoleDispatcher,
			Immutable: true,
			Policies: []Policy{
				{Object: "/ops/shipments", Action: "*"},
				{Object: "/ops/shipments/:id", Action: "*"},
				{Object: "/ops/shipments/:id/status", Action: "POST"},
				{Object: "/ops/shipments/status/batch", Action: "POST"},
				{Object: "/ops/shipments/:id/reassign", Action: "POST"},
				{Object: "/ops/shipments/reassign/batch", Action: "POST"},
				{Object: "/ops/shipments/:id/sync", Action: "POST"},
				{Object: "/ops/shipments/:id/events", Action: "GET"},
				{Object: "/ops/sessions", Action: "GET"},
				{Object: "/ops/sessions/:id", Action: "*"},
				{Object: "/ops/sessions/:id/stop", Action: "POST"},
				{Object: "/ops/sessions/:id/pause", Action: "POST"},
				{Object: "/ops/riders/active", Action: "GET"},
			},
		},
		{
			Role:      constants.RoleManager,
			Inherits:  []string{constants.RoleRider, constants.RoleDispatcher},
			Immutable: true,
			Policies: []Policy{
				{Object: "/ops/*", Action: "*"},
				{Object: "/admin/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles installs the builtin role matrix, idempotently.
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return fmt.Errorf("ensure builtin role %s failed: %w", seed.Role, err)
		}

		for _, parent := range seed.Inherits {
			parentRole, err := s.EnsureRole(parent)
			if err != nil {
				return fmt.Errorf("ensure inherited role %s failed: %w", parent, err)
			}
			has, err := s.enforcer.HasNamedGroupingPolicy("g", role, parentRole)
			if err != nil {
				return fmt.Errorf("check role inheritance failed: %w", err)
			}
			if !has {
				if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
					return fmt.Errorf("add role inheritance failed: %w", err)
				}
			}
		}

		for _, policy := range seed.Policies {
			obj := NormalizeObject(policy.Object)
			act := NormalizeAction(policy.Action)
			has, err := s.enforcer.HasPolicy(role, obj, act)
			if err != nil {
				return fmt.Errorf("check builtin policy failed: %w", err)
			}
			if has {
				continue
			}
			if _, err := s.enforcer.AddPolicy(role, obj, act); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}

	return nil
}
