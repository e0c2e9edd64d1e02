// Package actor carries the already-authenticated caller identity through
// request contexts. Authentication itself happens upstream; the portal only
// consumes the resolved identity and role.
package actor

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Role is the caller's resolved role.
type Role string

const (
	RoleCompanyAdmin       Role = "company_admin"
	RoleProjectManager     Role = "project_manager"
	RoleAccountant         Role = "accountant"
	RoleClientAdmin        Role = "client_admin"
	RoleClientCollaborator Role = "client_collaborator"
)

// Actor identifies who performs an operation. Client-role actors carry the
// snowflake id of the client record they belong to.
type Actor struct {
	ID       string
	Role     Role
	ClientID snowflake.ID
}

// Gateway is the sentinel identity for webhook-originated changes.
var Gateway = Actor{ID: "gateway-webhook"}

// IsCompany reports whether the actor is company staff.
func (a Actor) IsCompany() bool {
	switch a.Role {
	case RoleCompanyAdmin, RoleProjectManager, RoleAccountant:
		return true
	default:
		return false
	}
}

// IsClient reports whether the actor belongs to a client tenant.
func (a Actor) IsClient() bool {
	switch a.Role {
	case RoleClientAdmin, RoleClientCollaborator:
		return true
	default:
		return false
	}
}

// ParseRole validates a raw role string.
func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleCompanyAdmin, RoleProjectManager, RoleAccountant, RoleClientAdmin, RoleClientCollaborator:
		return Role(raw), true
	default:
		return "", false
	}
}

type ctxKey struct{}

// WithContext stores the actor on the context.
func WithContext(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the actor stored on the context, if any.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}
