// Package jwt issues and validates the HMAC-signed access tokens.
package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// TokenType is the required value of the "type" claim on access tokens.
const TokenType = "access"

// Issuer signs access tokens with a shared HMAC-SHA256 secret.
type Issuer struct {
	Secret            []byte
	AccessTTL         time.Duration // default expiry
	AccessTTLRemember time.Duration // expiry under "remember me"
}

// AccessClaims is the validated payload of an access token.
type AccessClaims struct {
	UserID   int64
	IssuedAt time.Time
	Expires  time.Time
}

var (
	ErrNoSecret     = errors.New("jwt: signing secret not configured")
	ErrInvalidToken = errors.New("jwt: invalid token")
	ErrWrongType    = errors.New("jwt: not an access token")
)

// TTL returns the access-token lifetime for the given remember-me choice.
func (i *Issuer) TTL(rememberMe bool) time.Duration {
	if rememberMe && i.AccessTTLRemember > 0 {
		return i.AccessTTLRemember
	}
	return i.AccessTTL
}

// SignAccess mints an access token for the user.
// Claims are {sub, type: "access", iat, exp}; sub is numeric.
func (i *Issuer) SignAccess(userID int64, rememberMe bool) (token string, expiresAt time.Time, err error) {
	if len(i.Secret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}

	now := time.Now().UTC()
	expiresAt = now.Add(i.TTL(rememberMe))

	claims := jwtv5.MapClaims{
		"sub":  userID,
		"type": TokenType,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	}

	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	token, err = tk.SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ParseAccess verifies signature, expiry and the "type" claim, and returns
// the decoded claims. Signature validity alone does not authorize a request;
// the session guard still checks for a live refresh token.
func (i *Issuer) ParseAccess(raw string) (*AccessClaims, error) {
	if len(i.Secret) == 0 {
		return nil, ErrNoSecret
	}

	keyfunc := func(t *jwtv5.Token) (any, error) {
		return i.Secret, nil
	}

	tok, err := jwtv5.Parse(raw, keyfunc,
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if typ, _ := claims["type"].(string); typ != TokenType {
		return nil, ErrWrongType
	}

	// sub is emitted as a JSON number
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return nil, ErrInvalidToken
	}

	out := &AccessClaims{UserID: int64(sub)}
	if iat, ok := claims["iat"].(float64); ok {
		out.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.Expires = time.Unix(int64(exp), 0).UTC()
	}
	return out, nil
}
