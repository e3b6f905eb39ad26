package domain

// Authority is a grant carried by a principal.
type Authority string

const (
	AuthorityUser  Authority = "ROLE_USER"
	AuthorityAdmin Authority = "ROLE_ADMIN"
)

// Principal is the authenticated identity reconstructed from a token.
type Principal struct {
	UserID      string      `json:"user_id"`
	Username    string      `json:"username"`
	Name        string      `json:"name"`
	Email       *string     `json:"email,omitempty"`
	Phone       *string     `json:"phone,omitempty"`
	Authorities []Authority `json:"authorities"`
}

// HasAuthority reports whether the principal was granted any of the given authorities.
func (p *Principal) HasAuthority(want ...Authority) bool {
	if p == nil {
		return false
	}
	for _, have := range p.Authorities {
		for _, w := range want {
			if have == w {
				return true
			}
		}
	}
	return false
}

// NewPrincipal builds a principal for a stored user.
func NewPrincipal(user *User, authorities []Authority) *Principal {
	return &Principal{
		UserID:      user.ID,
		Username:    user.Username,
		Name:        user.Name,
		Email:       user.Email,
		Phone:       user.Phone,
		Authorities: authorities,
	}
}

// TokenStatus classifies a presented token.
type TokenStatus string

const (
	TokenValid   TokenStatus = "valid"
	TokenExpired TokenStatus = "expired"
	TokenInvalid TokenStatus = "invalid"
)

// AuthResult is the outcome of authenticating a token. Principal is set only
// when Status is TokenValid.
type AuthResult struct {
	Status    TokenStatus
	Principal *Principal
}
