package transfer

import (
	"sync"

	"github.com/samsamfire/cyphalcan/internal/crc"
	"github.com/samsamfire/cyphalcan/pkg/can"
)

// Transmitter converts Transfers into Frames and pushes them through a
// FrameSink. It is the core of the Cyphal/CAN transport: computing frame
// counts, reserving queue capacity ahead of touching the wire, streaming
// payload bytes through the CRC and Segmenter in one pass, and stamping
// every emitted Frame with the transfer's identifier and timestamp.
//
// Transmitter is not internally synchronized against concurrent Push
// calls: a single goroutine is expected to drive it to completion before
// issuing the next one, mirroring the cooperative, single-threaded
// scheduling model the rest of this package assumes. The mutex below only
// protects the Mtu/counter fields from being read mid-push by another
// goroutine (e.g. a metrics exporter).
type Transmitter[I any] struct {
	mu    sync.Mutex
	mtu   can.Mtu
	queue FrameSink[I]

	transferCount uint64
	errorCount    uint64
}

// NewTransmitter creates a Transmitter with the given starting Mtu and
// frame queue.
func NewTransmitter[I any](mtu can.Mtu, queue FrameSink[I]) *Transmitter[I] {
	return &Transmitter[I]{mtu: mtu, queue: queue}
}

// SetMtu changes the frame capacity used by subsequent pushes. It does not
// affect a push already in progress.
func (t *Transmitter[I]) SetMtu(mtu can.Mtu) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mtu = mtu
}

// FrameQueue returns the frame sink this Transmitter pushes into.
func (t *Transmitter[I]) FrameQueue() FrameSink[I] { return t.queue }

// TransferCount returns the number of transfers successfully pushed so
// far. It wraps on overflow; it is an observability counter, not a
// correctness mechanism.
func (t *Transmitter[I]) TransferCount() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transferCount
}

// ErrorCount returns the number of pushes that failed with ErrOutOfMemory
// so far. It wraps on overflow.
func (t *Transmitter[I]) ErrorCount() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.errorCount
}

// frameLayout describes how many frames a payload needs and how much zero
// padding the last one gets, per §4.3 step 1.
type frameLayout struct {
	frames     int
	padding    int
	multiFrame bool
}

func computeLayout(payloadLen int, mtu can.Mtu) frameLayout {
	userBytes := int(mtu) - 1
	if payloadLen <= userBytes {
		return frameLayout{frames: 1}
	}
	// padding = (-(P+2)) mod U, kept non-negative.
	padding := (userBytes - (payloadLen+2)%userBytes) % userBytes
	total := payloadLen + padding + 2
	return frameLayout{
		frames:     total / userBytes,
		padding:    padding,
		multiFrame: true,
	}
}

// Push segments transfer and pushes its frames into the queue.
//
// The push is transactional: capacity for every frame the transfer needs
// is reserved up front, so a failure is reported before anything is
// enqueued (§4.3 step 2, §7). Once reservation succeeds, the payload
// (extended with zero padding for multi-frame transfers) is streamed
// through a CRC accumulator and the Segmenter in a single pass; sealed
// frames are stamped with the transfer's timestamp and identifier and
// pushed immediately.
func (t *Transmitter[I]) Push(tr Transfer[I]) error {
	t.mu.Lock()
	mtu := t.mtu
	t.mu.Unlock()

	layout := computeLayout(len(tr.Payload), mtu)

	if err := t.queue.TryReserve(layout.frames); err != nil {
		t.mu.Lock()
		t.errorCount++
		t.mu.Unlock()
		return ErrOutOfMemory
	}

	id := EncodeID(tr.Header, tr.Payload)
	seg := NewSegmenter(mtu, tr.Header.TransferID)
	accum := crc.New()

	emit := func(data *[64]byte, n uint8) {
		err := t.queue.PushFrame(Frame[I]{
			Timestamp: tr.Timestamp,
			ID:        id,
			Data:      *data,
			Len:       n,
		})
		if err != nil {
			// Capacity for this frame was already reserved above; a
			// rejection here means the queue broke its own contract.
			panic("transfer: push_frame failed after a successful reservation")
		}
	}

	payloadLen := len(tr.Payload)
	paddingEnd := payloadLen + layout.padding
	total := paddingEnd
	if layout.multiFrame {
		total += 2
	}

	var crcBytes [2]byte
	crcReady := false
	byteAt := func(i int) byte {
		switch {
		case i < payloadLen:
			return tr.Payload[i]
		case i < paddingEnd:
			return 0
		default:
			if !crcReady {
				crcBytes = accum.Bytes()
				crcReady = true
			}
			return crcBytes[i-paddingEnd]
		}
	}

	var scratch [64]byte
	if total == 0 {
		n := seg.Finish(nil, &scratch)
		emit(&scratch, n)
	} else {
		for i := 0; i < total-1; i++ {
			b := byteAt(i)
			if layout.multiFrame && i < paddingEnd {
				accum.Single(b)
			}
			if n, sealed := seg.Add(b, &scratch); sealed {
				emit(&scratch, n)
			}
		}
		if last := total - 1; layout.multiFrame && last < paddingEnd {
			accum.Single(byteAt(last))
		}
		last := byteAt(total - 1)
		n := seg.Finish(&last, &scratch)
		emit(&scratch, n)
	}

	t.mu.Lock()
	t.transferCount++
	t.mu.Unlock()
	return nil
}
