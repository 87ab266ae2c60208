package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"salesystem/m/domain"
)

const (
	tokenIssuer = "posdb"
	// sessionTTL covers one till shift.
	sessionTTL = 12 * time.Hour
)

type sessionKey struct{}

// session is the identity carried by a verified bearer token.
type session struct {
	UserID   int64
	Username string
	Role     string
}

type sessionClaims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) issueToken(user domain.User) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.secret))
}

func (h *Handler) signingKey(*jwt.Token) (any, error) {
	return []byte(h.secret), nil
}

// requireSession rejects requests without a valid till session and stores
// the session on the request context.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}

		claims := &sessionClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, h.signingKey,
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
		)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "session expired or invalid")
			return
		}

		s := session{UserID: claims.UserID, Username: claims.Subject, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	token = strings.TrimSpace(token)
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return token, true
}

func sessionFrom(r *http.Request) session {
	s, _ := r.Context().Value(sessionKey{}).(session)
	return s
}

// allowRoles writes a 403 and returns false unless the session role is listed.
func allowRoles(w http.ResponseWriter, r *http.Request, roles ...string) bool {
	role := sessionFrom(r).Role
	if slices.Contains(roles, role) {
		return true
	}
	writeError(w, http.StatusForbidden, fmt.Sprintf("role %q may not perform this action", role))
	return false
}
