package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/repositories"
	"github.com/golang-jwt/jwt"
)

// Identity is who a bearer credential says the caller is. It carries no role.
type Identity struct {
	Email    string
	IssuedAt time.Time
}

// TokenClaims for JWT token
type TokenClaims struct {
	Email string `json:"email"`
	jwt.StandardClaims
}

// IdentityService mints and verifies auth tokens and resolves roles live from the
// account store on every call.
type IdentityService struct {
	secret []byte
	ttl    time.Duration
	users  repositories.UserStore
}

func NewIdentityService(secret string, ttl time.Duration, users repositories.UserStore) *IdentityService {
	return &IdentityService{secret: []byte(secret), ttl: ttl, users: users}
}

// IssueToken signs an HS256 token for email.
func (s *IdentityService) IssueToken(email string) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		Email: strings.ToLower(strings.TrimSpace(email)),
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Authenticate verifies credential and returns the identity it carries.
func (s *IdentityService) Authenticate(credential string) (*Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, models.ErrUnauthorized
	}
	token, err := jwt.ParseWithClaims(credential, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, models.ErrUnauthorized
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || claims.Email == "" {
		return nil, models.ErrUnauthorized
	}
	return &Identity{Email: claims.Email, IssuedAt: time.Unix(claims.IssuedAt, 0)}, nil
}

// AuthenticateEmail verifies credential and returns only the email it carries.
func (s *IdentityService) AuthenticateEmail(credential string) (string, error) {
	id, err := s.Authenticate(credential)
	if err != nil {
		return "", err
	}
	return id.Email, nil
}

// Authorize looks the caller up and checks the stored role against allowed. An empty
// allowed set only requires the account to exist.
func (s *IdentityService) Authorize(ctx context.Context, id *Identity, allowed ...models.Role) (*models.User, error) {
	if id == nil {
		return nil, models.ErrUnauthorized
	}
	user, err := s.users.GetByEmail(ctx, id.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrForbidden
		}
		return nil, upstream(err)
	}
	if len(allowed) == 0 {
		return user, nil
	}
	for _, role := range allowed {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, models.ErrForbidden
}
