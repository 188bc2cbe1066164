package realtime

import (
	"fmt"

	"github.com/yndnr/dinekit-go/internal/realtime/transport"
)

// State is the connection state of a channel.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ChannelName identifies one of the three channels.
type ChannelName string

const (
	ChannelGeneral ChannelName = "general"
	ChannelOrder   ChannelName = "order"
	ChannelKitchen ChannelName = "kitchen"
)

// channelSpec describes a channel: its namespace and whether it joins the
// table on connect.
type channelSpec struct {
	name      ChannelName
	namespace string
	joinTable bool
}

var channelSpecs = []channelSpec{
	{ChannelGeneral, "/", true},
	{ChannelOrder, "/orders", true},
	{ChannelKitchen, "/kitchen", false},
}

// Status is a snapshot of one channel.
type Status struct {
	Channel   ChannelName
	State     State
	Attempts  int
	Transport transport.Kind
	Err       error
}
