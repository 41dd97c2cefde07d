package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User represents an agent who can log in and own buyers.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayName falls back to the email when no name was given.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Principal is the caller of a use case, resolved once at the request edge.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// PrincipalFromUser converts a stored user into a request principal.
func PrincipalFromUser(u *User) Principal {
	return Principal{ID: u.ID, Email: u.Email, Name: u.DisplayName(), Role: u.Role}
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsZero() bool {
	return p.ID == ""
}

// CanModify reports whether the principal may edit or delete the buyer.
func (p Principal) CanModify(b *Buyer) bool {
	return b != nil && (p.IsAdmin() || b.OwnerID == p.ID)
}
