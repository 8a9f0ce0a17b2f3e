package domain

import "time"

// Role is what a user does in the system.
type Role string

const (
	RoleDriver    Role = "DRIVER"
	RolePassenger Role = "PASSENGER"
	RoleAdmin     Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleDriver, RolePassenger, RoleAdmin:
		return true
	}
	return false
}

// User represents a driver or passenger account.
type User struct {
	ID        string
	Name      string
	Phone     string
	Role      Role
	CreatedAt time.Time
}
