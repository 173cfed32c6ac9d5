package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// AccessTokenTTL is how long an access token stays valid.
	AccessTokenTTL = 15 * time.Minute
	// RefreshTokenTTL is how long a refresh token stays valid, provided it
	// is still the one stored on the user row.
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenRevoked means the token verified cryptographically but no
	// longer matches the user's stored refresh token (rotated or cleared).
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims is the claim set embedded in both access and refresh tokens.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// RefreshLookup resolves the refresh token currently stored for a user.
// Returns "" when no token is stored (logged out).
type RefreshLookup func(userID string) (string, error)

// TokenService issues and verifies the signed access/refresh token pair.
// Access and refresh tokens are signed with separate secrets so one leaking
// does not compromise the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(accessSecret, refreshSecret string) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     AccessTokenTTL,
		refreshTTL:    RefreshTokenTTL,
	}
}

// Tokens is the process-wide token service, set once from main.
var Tokens *TokenService

// InitTokens configures the global token service.
func InitTokens(accessSecret, refreshSecret string) {
	Tokens = NewTokenService(accessSecret, refreshSecret)
}

func (s *TokenService) sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// IssueTokens produces a new access/refresh pair for a user. The caller must
// persist the returned refresh token as the user's current one before handing
// the pair to the client; that write is the rotation/revocation point.
func (s *TokenService) IssueTokens(userID string) (accessToken, refreshToken string, err error) {
	accessToken, err = s.sign(userID, s.accessSecret, s.accessTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = s.sign(userID, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func parse(tokenStr string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyAccess checks signature and expiry only; no store lookup.
func (s *TokenService) VerifyAccess(tokenStr string) (string, error) {
	claims, err := parse(tokenStr, s.accessSecret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// VerifyRefresh checks signature and expiry, then confirms the token is the
// one currently stored for the decoded user. Any mismatch, including a prior
// rotation, yields ErrTokenRevoked.
func (s *TokenService) VerifyRefresh(tokenStr string, lookup RefreshLookup) (string, error) {
	claims, err := parse(tokenStr, s.refreshSecret)
	if err != nil {
		return "", err
	}
	stored, err := lookup(claims.UserID)
	if err != nil {
		return "", err
	}
	if stored == "" || stored != tokenStr {
		return "", ErrTokenRevoked
	}
	return claims.UserID, nil
}
