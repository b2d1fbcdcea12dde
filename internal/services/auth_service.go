package services

import (
	"crypto/subtle"
	"strings"
)

// AdminToken is the fixed token handed out on a successful admin login.
const AdminToken = "admin_dummy_token"

// LoginResult is returned by a successful login.
type LoginResult struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// AuthService checks admin credentials against configured values. It is not
// a real authentication system: the token never expires and nothing
// verifies it.
type AuthService struct {
	Email    string
	Password string
}

// NewAuthService constructs an AuthService.
func NewAuthService(email, password string) *AuthService {
	return &AuthService{Email: email, Password: password}
}

// Login returns the admin token when email and password match. Login always
// fails when no credentials are configured.
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	if s.Email == "" || s.Password == "" {
		return nil, ErrInvalidCredentials
	}
	email = strings.TrimSpace(email)
	okEmail := subtle.ConstantTimeCompare([]byte(email), []byte(s.Email)) == 1
	okPass := subtle.ConstantTimeCompare([]byte(password), []byte(s.Password)) == 1
	if !okEmail || !okPass {
		return nil, ErrInvalidCredentials
	}
	return &LoginResult{Email: s.Email, Token: AdminToken}, nil
}
