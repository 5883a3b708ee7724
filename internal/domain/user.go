package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is the platform role attached to a user account
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleResident Role = "resident"
	RoleTenant   Role = "tenant"
)

// IsManagerial reports whether the role can administer common spaces
func (r Role) IsManagerial() bool {
	return r == RoleAdmin || r == RoleManager
}

// IsOccupant reports whether the role gets access through residence links
func (r Role) IsOccupant() bool {
	return r == RoleResident || r == RoleTenant
}

// User represents a user in the system
type User struct {
	ID        uuid.UUID `json:"id"`
	Auth0ID   string    `json:"auth0Id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Actor is the authenticated user performing an operation
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// IsManagerial reports whether the actor holds a managerial role
func (a Actor) IsManagerial() bool {
	return a.Role.IsManagerial()
}

// UserRepository defines the interface for user lookups.
// Users are owned by the identity service; this engine only reads them.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByAuth0ID(ctx context.Context, auth0ID string) (*User, error)
	// ListByIDs returns the users found among ids, keyed by ID. Missing IDs are skipped.
	ListByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*User, error)
}
