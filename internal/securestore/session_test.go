package securestore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/dinekit-go/internal/core/domain"
)

func TestSession_Routing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)
	sess := NewSession(f.store)

	sess.SetAuthToken(ctx, "tok", false)
	sess.SetTenantInfo(ctx, domain.Tenant{ID: "t1", Name: "Bistro"})

	if !has(t, f.session, "dinekit_secure_auth_token") || has(t, f.persistent, "dinekit_secure_auth_token") {
		t.Error("auth token must live only in the session backend")
	}
	if has(t, f.session, "dinekit_secure_tenant_info") || !has(t, f.persistent, "dinekit_secure_tenant_info") {
		t.Error("tenant info must live only in the persistent backend")
	}
}

func TestSession_AuthTokenLifetime(t *testing.T) {
	tests := []struct {
		name     string
		remember bool
		elapsed  time.Duration
		want     bool
	}{
		{"short within a day", false, 23 * time.Hour, true},
		{"short after a day", false, 25 * time.Hour, false},
		{"remembered after a day", true, 25 * time.Hour, true},
		{"remembered after a week", true, 7*24*time.Hour + time.Minute, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, deviceA)
			sess := NewSession(f.store)

			sess.SetAuthToken(ctx, "tok", tt.remember)
			f.clock.Advance(tt.elapsed)

			if got := sess.IsAuthenticated(ctx); got != tt.want {
				t.Errorf("IsAuthenticated() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_TenantInfoExpiresAfterOneHour(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)
	sess := NewSession(f.store)

	sess.SetTenantInfo(ctx, domain.Tenant{ID: "t1"})
	f.clock.Advance(59 * time.Minute)
	if tenant, ok := sess.TenantInfo(ctx); !ok || tenant.ID != "t1" {
		t.Fatalf("TenantInfo() = %+v, %v", tenant, ok)
	}
	f.clock.Advance(2 * time.Minute)
	if _, ok := sess.TenantInfo(ctx); ok {
		t.Error("TenantInfo() should be absent after one hour")
	}
}

func TestSession_UserDataAndClearAuth(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, deviceA)
	sess := NewSession(f.store)

	sess.SetAuthToken(ctx, "tok", true)
	sess.SetUserData(ctx, domain.User{ID: "u1", Name: "Ana", Role: "waiter"}, true)
	sess.SetTenantInfo(ctx, domain.Tenant{ID: "t1"})
	f.store.SetItem(ctx, "cart", []string{"soup"}, PolicyPersistent, 0)

	user, ok := sess.UserData(ctx)
	if !ok || user.Name != "Ana" || user.Role != "waiter" {
		t.Fatalf("UserData() = %+v, %v", user, ok)
	}

	sess.ClearAuth(ctx)

	if sess.IsAuthenticated(ctx) {
		t.Error("IsAuthenticated() after ClearAuth = true")
	}
	if _, ok := sess.UserData(ctx); ok {
		t.Error("UserData() after ClearAuth should be absent")
	}
	if keys := f.store.Keys(ctx); strings.Join(keys, ",") != "cart" {
		t.Errorf("Keys() = %v, want [cart]", keys)
	}
}

func TestSession_EmptyTokenIsNotAuthenticated(t *testing.T) {
	ctx := context.Background()
	sess := NewSession(newFixture(t, deviceA).store)

	sess.SetAuthToken(ctx, "", false)
	if sess.IsAuthenticated(ctx) {
		t.Error("IsAuthenticated() = true for empty token")
	}
}
