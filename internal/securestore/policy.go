package securestore

import (
	"fmt"
	"strings"

	"github.com/yndnr/dinekit-go/internal/storage"
)

// Policy selects the backend an item is stored in.
type Policy int

const (
	// PolicySession stores the item in the session-scoped backend.
	PolicySession Policy = iota
	// PolicyPersistent stores the item in the persistent backend.
	PolicyPersistent
	// PolicyAuto applies the legacy naming rule: keys containing "token"
	// or "auth" go to the session backend, all others are persistent.
	// A key such as "author_bio" is silently treated as a credential, so
	// new code should pass an explicit policy.
	PolicyAuto
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicySession:
		return "session"
	case PolicyPersistent:
		return "persistent"
	case PolicyAuto:
		return "auto"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name as accepted by String.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "session":
		return PolicySession, nil
	case "persistent":
		return PolicyPersistent, nil
	case "auto", "":
		return PolicyAuto, nil
	default:
		return 0, ErrInvalidPolicy.WithDetails(s)
	}
}

// Scope resolves the backend scope for key under p.
func (p Policy) Scope(key string) storage.Scope {
	switch p {
	case PolicySession:
		return storage.ScopeSession
	case PolicyPersistent:
		return storage.ScopePersistent
	default:
		lower := strings.ToLower(key)
		if strings.Contains(lower, "token") || strings.Contains(lower, "auth") {
			return storage.ScopeSession
		}
		return storage.ScopePersistent
	}
}
