package model

// Role is the capability level of an authenticated caller.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// Principal is the authenticated caller of an operation. It is derived per
// request on the server and passed explicitly into every service call.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal may perform admin operations.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanView reports whether the principal may read an order owned by userID.
func (p Principal) CanView(userID string) bool {
	return p.IsAdmin() || (p.UserID != "" && p.UserID == userID)
}
