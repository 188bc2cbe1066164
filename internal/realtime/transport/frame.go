package transport

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Frame is one event on the wire.
type Frame struct {
	ID    string          `json:"id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewFrame encodes data into a frame with a fresh ULID.
func NewFrame(event string, data any) (Frame, error) {
	f := Frame{ID: ulid.Make().String(), Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Frame{}, fmt.Errorf("encode %s payload: %w", event, err)
		}
		f.Data = raw
	}
	return f, nil
}

// Decode unmarshals the frame payload into v.
func (f Frame) Decode(v any) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("event %s: empty payload", f.Event)
	}
	return json.Unmarshal(f.Data, v)
}

// Kind identifies a transport.
type Kind string

const (
	KindStream Kind = "websocket"
	KindPoll   Kind = "polling"
)

// Target is a namespaced endpoint plus credentials.
type Target struct {
	// Endpoint is the base URL, e.g. "https://api.example.com".
	Endpoint string
	// Namespace is the logical channel path: "/", "/orders", "/kitchen".
	Namespace string
	// Token is sent as a bearer credential.
	Token string
}

// url joins the endpoint, namespace and suffix.
func (t Target) url(suffix string, query url.Values) string {
	ns := strings.Trim(t.Namespace, "/")
	u := strings.TrimRight(t.Endpoint, "/")
	if ns != "" {
		u += "/" + ns
	}
	u += "/" + suffix
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (t Target) authorization() string {
	return "Bearer " + t.Token
}
