// Package domain defines the values shared by the dinekit client
// components: the structured DomainError, the session artifacts kept in
// the secure store (User, Tenant), and the payloads carried by realtime
// events.
//
// Types here are plain values without IO dependencies.
package domain
