// Package identity resolves the user a request acts for. The favorites API
// takes the user id as an explicit input; the HTML pages ask a Source for
// it and the CLI reads it from its bearer token.
package identity

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoIdentity means the source could not name a user for the request.
	ErrNoIdentity = errors.New("identity: no user for request")
	// ErrInvalidToken is returned for a bearer token that fails validation.
	ErrInvalidToken = errors.New("identity: invalid token")
)

type Source interface {
	UserID(r *http.Request) (string, error)
}

// Static always answers with ID.
type Static struct {
	ID string
}

func (s Static) UserID(*http.Request) (string, error) {
	if s.ID == "" {
		return "", ErrNoIdentity
	}
	return s.ID, nil
}

// JWT reads the subject of an HS256 bearer token. Requests without an
// Authorization header go to Fallback when set. A token that is present but
// invalid is an error, never a fallback.
type JWT struct {
	Secret   []byte
	Fallback Source
}

func (j JWT) UserID(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		if j.Fallback != nil {
			return j.Fallback.UserID(r)
		}
		return "", ErrNoIdentity
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrInvalidToken
	}
	return ParseSubject(strings.TrimSpace(token), j.Secret)
}

// ParseSubject validates an HS256 token and returns its sub claim.
func ParseSubject(tokenString string, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("identity: empty secret")
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	claims := &jwt.RegisteredClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("identity: invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", errors.Join(ErrInvalidToken, errors.New("missing sub"))
	}
	return claims.Subject, nil
}

// UnverifiedSubject returns the sub claim of tokenString without checking
// its signature or expiry. Clients use it to name the user a token speaks
// for; the server side always goes through ParseSubject.
func UnverifiedSubject(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", errors.Join(ErrInvalidToken, errors.New("missing sub"))
	}
	return claims.Subject, nil
}

// Chain asks each source in order and returns the first user id found.
// ErrNoIdentity from one source moves on to the next; any other error stops.
type Chain []Source

func (c Chain) UserID(r *http.Request) (string, error) {
	for _, s := range c {
		id, err := s.UserID(r)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrNoIdentity) {
			return "", err
		}
	}
	return "", ErrNoIdentity
}

// New returns the server's identity source: bearer tokens when secret is
// set, with defaultUserID behind them.
func New(secret, defaultUserID string) Source {
	static := Static{ID: defaultUserID}
	if secret == "" {
		return static
	}
	return JWT{Secret: []byte(secret), Fallback: static}
}
