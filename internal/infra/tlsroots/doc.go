// Package tlsroots builds the client TLS configuration for the realtime
// endpoint.
//
// Trust starts from the system pool; CA bundles from a file or a
// directory are added on top. A configured client certificate is served
// through tls.Config.GetClientCertificate and can be reloaded in place
// when its files are rotated.
package tlsroots
