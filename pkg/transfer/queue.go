package transfer

import "errors"

// ErrOutOfMemory is returned from Transmitter.Push when the frame queue
// cannot admit every frame a transfer requires. No frames from that
// transfer are enqueued.
var ErrOutOfMemory = errors.New("transfer: frame queue out of memory")

// FrameSink is the bounded frame queue a Transmitter pushes into. It is the
// sole collaborator of the transmit pipeline: concrete implementations
// (ring buffer, priority heap keyed by CanID for arbitration-order
// emission, ...) are free to choose their own storage policy as long as it
// is bounded.
//
// TryReserve and PushFrame are expected to be allocation-free. Reservations
// do not compose across pushes: each push reserves capacity independently,
// and after a successful TryReserve(n), the next n calls to PushFrame
// within that same push must succeed -- a PushFrame failing in that window
// is a queue invariant violation, not a runtime error the caller can act
// on.
type FrameSink[I any] interface {
	TryReserve(n int) error
	PushFrame(f Frame[I]) error
}
