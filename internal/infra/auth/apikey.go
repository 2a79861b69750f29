package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/datasteward/steward/internal/domain"
)

// HashKey returns the bcrypt hash stored for an API key
func HashKey(key string, cost int) (string, error) {
	if key == "" {
		return "", errors.New("api key cannot be empty")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api key: %w", err)
	}
	return string(hash), nil
}

// APIKeyAuthenticator checks "actor:secret" keys against bcrypt hashes per actor
type APIKeyAuthenticator struct {
	hashes map[string]string
}

// NewAPIKeyAuthenticator parses entries of the form "actor=hash"
func NewAPIKeyAuthenticator(entries []string) (*APIKeyAuthenticator, error) {
	hashes := make(map[string]string, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		actor, hash, ok := strings.Cut(entry, "=")
		if !ok || actor == "" || hash == "" {
			return nil, fmt.Errorf("invalid api key entry %q", entry)
		}
		hashes[actor] = hash
	}
	return &APIKeyAuthenticator{hashes: hashes}, nil
}

// Empty reports whether no key is configured
func (a *APIKeyAuthenticator) Empty() bool {
	return len(a.hashes) == 0
}

// Authenticate returns the actor owning key
func (a *APIKeyAuthenticator) Authenticate(key string) (string, error) {
	actor, secret, ok := strings.Cut(key, ":")
	if !ok || actor == "" || secret == "" {
		return "", domain.ErrUnauthorized("malformed api key")
	}
	hash, ok := a.hashes[actor]
	if !ok {
		return "", domain.ErrUnauthorized("unknown api key")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return "", domain.ErrUnauthorized("invalid api key")
	}
	return actor, nil
}
