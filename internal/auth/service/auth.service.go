package service

import (
	"errors"
	"fmt"
	"time"

	"collablist/internal/auth/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// AuthService is the identity provider: it mints anonymous identities and
// validates pre-issued tokens. Tokens are HS256 JWTs whose subject is the user id.
type AuthService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(secret, issuer string, ttl time.Duration) *AuthService {
	return &AuthService{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

func (s *AuthService) SignInAnonymous() (model.Session, error) {
	userID := uuid.NewString()
	token, err := s.Issue(userID)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{UserID: userID, Token: token}, nil
}

func (s *AuthService) SignInWithToken(token string) (model.Session, error) {
	userID, err := s.Verify(token)
	if err != nil {
		return model.Session{}, err
	}
	return model.Session{UserID: userID, Token: token}, nil
}

// Issue signs a token for userID.
func (s *AuthService) Issue(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry and returns the subject.
func (s *AuthService) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: subject claim is missing", ErrInvalidToken)
	}
	return claims.Subject, nil
}
