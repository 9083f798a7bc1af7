package domain

// Role is the account type of a marketplace user.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleSeller     Role = "seller"
	RoleB2B        Role = "b2b"
	RoleAdmin      Role = "admin"
	RoleInfluencer Role = "influencer"
)

// Roles lists every known role.
var Roles = []Role{RoleCustomer, RoleSeller, RoleB2B, RoleAdmin, RoleInfluencer}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User is the backend's view of the signed-in account.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Avatar   string `json:"avatar,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
	Verified bool   `json:"verified"`
}

// Session is the visitor status reported by the backend for one page load.
// User may be nil even when Authenticated is true.
type Session struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

// Guest is the unauthenticated session.
func Guest() Session {
	return Session{}
}

// UserID returns the signed-in user id, or "".
func (s Session) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Role returns the signed-in user's role, or "".
func (s Session) Role() Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}
