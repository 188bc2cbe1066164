package domain

import (
	"errors"
	"testing"
)

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{"valid", User{ID: "u1", Name: "Ana"}, false},
		{"missing id", User{Name: "Ana"}, true},
		{"blank id", User{ID: "  "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrMissingArgument) {
				t.Errorf("Validate() error = %v, want ErrMissingArgument", err)
			}
		})
	}
}

func TestTenant_Validate(t *testing.T) {
	if err := (&Tenant{ID: "t1"}).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := (&Tenant{Name: "Bistro"}).Validate(); !errors.Is(err, ErrMissingArgument) {
		t.Errorf("Validate() error = %v, want ErrMissingArgument", err)
	}
}
