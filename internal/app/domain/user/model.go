package user

import "time"

// Role is the operator role attached to an account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
	RoleStaff   Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCashier, RoleStaff:
		return true
	}
	return false
}

// User is an operator account used to sign in at the POS terminal. PINHash is
// the bcrypt hash of the operator's PIN and is never serialized.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	PINHash   string    `json:"-"`
	FullName  string    `json:"fullName,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
