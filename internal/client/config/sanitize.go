package config

import "strings"

// Sanitize returns a copy of the config with secrets masked.
func Sanitize(cfg *ClientConfig) *ClientConfig {
	out := *cfg
	out.Log.Output = nil
	if out.Store.Persistent.Redis.Password != "" {
		out.Store.Persistent.Redis.Password = maskSecret(out.Store.Persistent.Redis.Password)
	}
	if out.Store.Secure.Salt != "" {
		out.Store.Secure.Salt = maskSecret(out.Store.Secure.Salt)
	}
	return &out
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
