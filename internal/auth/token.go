package auth

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maplecart/apiserver/types"
)

// TokenTTL is how long an issued session token stays valid. There is no
// server-side revocation; invalidation relies on expiry and the client
// discarding the cookie at logout.
const TokenTTL = 7 * 24 * time.Hour

// Identity is the resolved subject of a verified session token.
type Identity struct {
	UserID int
	Email  string
	Admin  bool
}

// Claims is the signed claim set embedded in a session token. The admin
// flag travels as 0/1.
type Claims struct {
	Email string `json:"email"`
	Admin int    `json:"adm"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, time-limited session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService constructs a TokenService with the server-held secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    TokenTTL,
	}
}

// Issue produces a signed token for the user with a fresh issued-at, so
// re-authenticating yields a structurally different token each time.
func (s *TokenService) Issue(user types.User) (string, error) {
	admin := 0
	if user.IsAdmin {
		admin = 1
	}

	now := time.Now()
	claims := Claims{
		Email: strings.ToLower(strings.TrimSpace(user.Email)),
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature and expiry and returns the resolved identity.
// Any failure (bad signature, malformed structure, expiry) yields
// (Identity{}, false) with no distinction between causes.
func (s *TokenService) Verify(tokenString string) (Identity, bool) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, false
	}

	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return Identity{}, false
	}

	return Identity{
		UserID: userID,
		Email:  claims.Email,
		Admin:  claims.Admin == 1,
	}, true
}
