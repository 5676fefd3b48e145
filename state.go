package mcclient

import "github.com/gstoney/mcclient/packet"

// State is the lifecycle state of a Conn.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateHandshaking
	StateStatus
	StateLogin
	StatePlay
	StateDisconnecting
	StateFailed
)

var stateNames = [...]string{
	StateDisconnected:  "Disconnected",
	StateConnecting:    "Connecting",
	StateHandshaking:   "Handshaking",
	StateStatus:        "Status",
	StateLogin:         "Login",
	StatePlay:          "Play",
	StateDisconnecting: "Disconnecting",
	StateFailed:        "Failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// protocol returns the packet state set that is live in s.
func (s State) protocol() (packet.State, bool) {
	switch s {
	case StateHandshaking:
		return packet.Handshaking, true
	case StateStatus:
		return packet.Status, true
	case StateLogin:
		return packet.Login, true
	case StatePlay:
		return packet.Play, true
	}
	return 0, false
}

// Terminal reports whether no worker runs in s.
func (s State) Terminal() bool {
	return s == StateDisconnected || s == StateFailed
}

var transitions = map[State][]State{
	StateDisconnected:  {StateConnecting},
	StateConnecting:    {StateHandshaking, StateDisconnecting, StateFailed},
	StateHandshaking:   {StateStatus, StateLogin, StateDisconnecting, StateFailed},
	StateStatus:        {StateDisconnecting, StateFailed},
	StateLogin:         {StatePlay, StateDisconnecting, StateFailed},
	StatePlay:          {StateDisconnecting, StateFailed},
	StateDisconnecting: {StateDisconnected},
}

func (s State) canTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}
