// Package hub bridges transport connections to the Session Registry. It
// owns the peer ↔ session binding, translates inbound envelopes into
// registry operations, and fans resulting state out to the right audience.
//
// All registry mutation and fan-out happens on a single run loop goroutine;
// transport goroutines only enqueue events. One message is handled to
// completion before the next is looked at, so no ordering hazards exist
// between operations on the same session.
package hub
