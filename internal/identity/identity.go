package identity

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Header carries the authenticated user's identity to downstream services.
const Header = "X-User-Info"

var ErrMissingIdentity = errors.New("missing user identity")

// UserInfo is the identity relayed downstream after token validation.
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// headerPayload tolerates both field spellings that appear in the wild:
// older gateways sent userId, newer ones send id.
type headerPayload struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Encode serializes the identity for the relay header: base64 over JSON.
func Encode(info UserInfo) string {
	raw, _ := json.Marshal(info)
	return base64.StdEncoding.EncodeToString(raw)
}

// Decode parses a relay header value.
func Decode(value string) (*UserInfo, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode identity header: %w", err)
	}

	var payload headerPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse identity header: %w", err)
	}

	id := payload.ID
	if id == "" {
		id = payload.UserID
	}
	if id == "" {
		return nil, ErrMissingIdentity
	}

	return &UserInfo{ID: id, Email: payload.Email}, nil
}

type contextKey struct{}

// FromHeader is middleware for downstream services: it decodes the relay
// header into the request context and rejects requests that lack one.
func FromHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value := r.Header.Get(Header)
		if value == "" {
			http.Error(w, "missing user identity", http.StatusUnauthorized)
			return
		}

		info, err := Decode(value)
		if err != nil {
			http.Error(w, "invalid user identity", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the identity placed by FromHeader, or nil.
func FromContext(ctx context.Context) *UserInfo {
	info, _ := ctx.Value(contextKey{}).(*UserInfo)
	return info
}
