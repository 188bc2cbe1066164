package domain

import "strings"

// User is the signed-in staff or customer profile.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	TenantID string `json:"tenantId,omitempty"`
}

// Validate reports whether the profile can be stored.
func (u *User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrMissingArgument.WithDetails("user id is required")
	}
	return nil
}

// Tenant is the restaurant context the client operates in.
type Tenant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug,omitempty"`
	Currency string `json:"currency,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// Validate reports whether the tenant context can be stored.
func (t *Tenant) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrMissingArgument.WithDetails("tenant id is required")
	}
	return nil
}
