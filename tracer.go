package mcclient

import "github.com/gstoney/mcclient/packet"

// Tracer receives connection events. Any field may be nil.
//
// StateChanged is called with the state lock held and must not call back
// into the Conn. The other hooks run on the worker that raised the event.
type Tracer struct {
	StateChanged       func(from, to State)
	SentPacket         func(kind packet.Kind, size int)
	ReceivedPacket     func(kind packet.Kind, size int)
	SkippedPacket      func(err *SkippedPacketError)
	EncryptionEnabled  func()
	CompressionEnabled func(threshold int32)
	Closed             func(err error)
}

func (t *Tracer) stateChanged(from, to State) {
	if t != nil && t.StateChanged != nil {
		t.StateChanged(from, to)
	}
}

func (t *Tracer) sentPacket(kind packet.Kind, size int) {
	if t != nil && t.SentPacket != nil {
		t.SentPacket(kind, size)
	}
}

func (t *Tracer) receivedPacket(kind packet.Kind, size int) {
	if t != nil && t.ReceivedPacket != nil {
		t.ReceivedPacket(kind, size)
	}
}

func (t *Tracer) skippedPacket(err *SkippedPacketError) {
	if t != nil && t.SkippedPacket != nil {
		t.SkippedPacket(err)
	}
}

func (t *Tracer) encryptionEnabled() {
	if t != nil && t.EncryptionEnabled != nil {
		t.EncryptionEnabled()
	}
}

func (t *Tracer) compressionEnabled(threshold int32) {
	if t != nil && t.CompressionEnabled != nil {
		t.CompressionEnabled(threshold)
	}
}

func (t *Tracer) closed(err error) {
	if t != nil && t.Closed != nil {
		t.Closed(err)
	}
}
