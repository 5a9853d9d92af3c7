// Package auth handles the shell's login-token entry point: decoding
// the Google ID token and mapping it to an application user profile in
// the realtime store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt"

	"github.com/ava19999/rtc/internal/models"
	"github.com/ava19999/rtc/internal/store"
)

var (
	ErrInvalidToken   = errors.New("invalid google id token")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrUserNotFound   = errors.New("user not found")
	ErrBadUsername    = errors.New("username must be 3-25 characters")
	ErrMissingProfile = errors.New("google profile incomplete")
)

// ParseIDToken extracts the Google profile claims from an ID token. The
// token arrives from the shell's sign-in flow which already verified it
// against Google; only the claims are needed here.
func ParseIDToken(token string) (models.GoogleProfile, error) {
	claims := jwt.MapClaims{}
	parser := jwt.Parser{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return models.GoogleProfile{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	profile := models.GoogleProfile{
		Subject: stringClaim(claims, "sub"),
		Email:   stringClaim(claims, "email"),
		Name:    stringClaim(claims, "name"),
		Picture: stringClaim(claims, "picture"),
	}
	if profile.Subject == "" || profile.Email == "" {
		return models.GoogleProfile{}, ErrMissingProfile
	}
	return profile, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// Registry maps auth subjects to application users in the store, keyed
// by uid at users/{uid} with lowercase-username uniqueness enforced via
// usernames/{name}.
type Registry struct {
	store store.RealtimeStore
}

// NewRegistry builds a Registry over the realtime store.
func NewRegistry(s store.RealtimeStore) *Registry {
	return &Registry{store: s}
}

// Lookup fetches the profile registered for uid.
func (r *Registry) Lookup(ctx context.Context, uid string) (models.User, error) {
	var user models.User
	if err := r.store.Get(ctx, "users/"+uid, &user); err != nil {
		return models.User{}, err
	}
	if user.Email == "" {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

// Register completes a new user's profile. The username claim is written
// first so two concurrent registrations cannot both win the same name.
func (r *Registry) Register(ctx context.Context, uid, username string, profile models.GoogleProfile, createdAt int64) (models.User, error) {
	trimmed := strings.TrimSpace(username)
	if len(trimmed) < 3 || len(trimmed) > 25 {
		return models.User{}, ErrBadUsername
	}

	key := "usernames/" + strings.ToLower(trimmed)
	var owner string
	if err := r.store.Get(ctx, key, &owner); err != nil {
		return models.User{}, err
	}
	if owner != "" && owner != uid {
		return models.User{}, ErrUsernameTaken
	}
	if err := r.store.Set(ctx, key, uid); err != nil {
		return models.User{}, err
	}

	user := models.User{
		Email:                profile.Email,
		Username:             trimmed,
		GoogleProfilePicture: profile.Picture,
		CreatedAt:            createdAt,
	}
	if err := r.store.Set(ctx, "users/"+uid, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}
