package securestore

import (
	"context"
	"time"

	"github.com/yndnr/dinekit-go/internal/core/domain"
)

// Session artifact keys.
const (
	KeyAuthToken  = "auth_token"
	KeyUserData   = "user_data"
	KeyTenantInfo = "tenant_info"
)

// Session artifact lifetimes.
const (
	ShortTTL    = 24 * time.Hour
	RememberTTL = 7 * 24 * time.Hour
	TenantTTL   = time.Hour
)

// Session stores the signed-in client's artifacts in a Store.
//
// The auth token is kept in the session backend only; the user profile and
// tenant context are persistent.
type Session struct {
	store *Store
}

// NewSession returns a Session backed by s.
func NewSession(s *Store) *Session {
	return &Session{store: s}
}

// Store returns the underlying store.
func (s *Session) Store() *Store {
	return s.store
}

func lifetime(remember bool) time.Duration {
	if remember {
		return RememberTTL
	}
	return ShortTTL
}

// SetAuthToken stores token for 24 hours, or 7 days when remember is set.
func (s *Session) SetAuthToken(ctx context.Context, token string, remember bool) {
	Set(ctx, s.store, KeyAuthToken, token, PolicySession, lifetime(remember))
}

// AuthToken returns the stored auth token.
func (s *Session) AuthToken(ctx context.Context) (string, bool) {
	return Get[string](ctx, s.store, KeyAuthToken, PolicySession)
}

// SetUserData stores the user profile for 24 hours, or 7 days when
// remember is set.
func (s *Session) SetUserData(ctx context.Context, user domain.User, remember bool) {
	Set(ctx, s.store, KeyUserData, user, PolicyPersistent, lifetime(remember))
}

// UserData returns the stored user profile.
func (s *Session) UserData(ctx context.Context) (domain.User, bool) {
	return Get[domain.User](ctx, s.store, KeyUserData, PolicyPersistent)
}

// SetTenantInfo stores the tenant context for one hour.
func (s *Session) SetTenantInfo(ctx context.Context, tenant domain.Tenant) {
	Set(ctx, s.store, KeyTenantInfo, tenant, PolicyPersistent, TenantTTL)
}

// TenantInfo returns the stored tenant context.
func (s *Session) TenantInfo(ctx context.Context) (domain.Tenant, bool) {
	return Get[domain.Tenant](ctx, s.store, KeyTenantInfo, PolicyPersistent)
}

// ClearAuth removes the auth token, user profile and tenant context.
func (s *Session) ClearAuth(ctx context.Context) {
	for _, key := range []string{KeyAuthToken, KeyUserData, KeyTenantInfo} {
		s.store.RemoveItem(ctx, key)
	}
}

// IsAuthenticated reports whether a valid, non-empty auth token is stored.
func (s *Session) IsAuthenticated(ctx context.Context) bool {
	token, ok := s.AuthToken(ctx)
	return ok && token != ""
}
