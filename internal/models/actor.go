package models

type Role string // Role of an authenticated user

const (
	Contractor    Role = "CONTRACTOR"
	Subcontractor Role = "SUBCONTRACTOR"
	Admin         Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case Contractor, Subcontractor, Admin:
		return true
	default:
		return false
	}
}

// Actor is the verified identity performing a request.
type Actor struct {
	UserID    string `json:"userId"`
	Role      Role   `json:"role"`
	CompanyID string `json:"companyId,omitempty"`
	TokenID   string `json:"-"`
}

// User is a platform account able to log in.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
	CompanyID    string `json:"companyId,omitempty"`
}

// LoginRequest is the body of a login call.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned after a successful login.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresAt   int64  `json:"expiresAt"`
}
