package transfer

import "github.com/samsamfire/cyphalcan/pkg/can"

func makeTail(start, end, toggle bool, tid TransferID) byte {
	var b byte
	if start {
		b |= 0x80
	}
	if end {
		b |= 0x40
	}
	if toggle {
		b |= 0x20
	}
	b |= tid.wire()
	return b
}

// Segmenter is a stateful byte sink that packs a byte stream into
// fixed-capacity frame payloads, sealing each one with the multi-frame tail
// byte (§3, §4.2). Its accumulator is a fixed [64]byte array sized to the
// largest supported Mtu, so driving it never touches the heap: callers
// supply the storage for each sealed frame's payload.
type Segmenter struct {
	capacity   int // Mtu: total frame capacity, tail byte included
	transferID TransferID
	buffer     [64]byte
	length     int
	frameIndex uint
	isFirst    bool
}

// NewSegmenter creates a Segmenter for one transfer. mtu is the frame
// capacity in effect for the whole transfer; tid is retained verbatim and
// masked to 5 bits wherever it's written to a tail byte.
func NewSegmenter(mtu can.Mtu, tid TransferID) *Segmenter {
	return &Segmenter{
		capacity:   int(mtu),
		transferID: tid,
		isFirst:    true,
	}
}

func (s *Segmenter) toggle() bool {
	return s.frameIndex%2 == 0
}

// Add appends b to the accumulator. When that fills a non-final frame
// (capacity-1 data bytes), it seals the frame into data, returning the
// number of valid bytes written and sealed=true, then resets the
// accumulator for the next frame. Otherwise it returns (0, false).
func (s *Segmenter) Add(b byte, data *[64]byte) (n uint8, sealed bool) {
	s.buffer[s.length] = b
	s.length++
	if s.length != s.capacity-1 {
		return 0, false
	}
	toggle := s.toggle()
	s.buffer[s.length] = makeTail(s.isFirst, false, toggle, s.transferID)
	s.length++
	written := copy(data[:], s.buffer[:s.length])
	s.length = 0
	s.frameIndex++
	s.isFirst = false
	return uint8(written), true
}

// Finish seals the final frame of the transfer: last, if non-nil, is
// appended to the accumulator first (Add is never used for the very last
// byte of a stream, since reaching capacity-1 there would otherwise be
// indistinguishable from filling a non-final frame). What remains --
// possibly nothing but the tail byte -- is then sealed with end=1.
//
// Finish must be called exactly once per transfer, after every other byte
// has been fed through Add.
func (s *Segmenter) Finish(last *byte, data *[64]byte) uint8 {
	if last != nil {
		s.buffer[s.length] = *last
		s.length++
	}
	toggle := s.toggle()
	s.buffer[s.length] = makeTail(s.isFirst, true, toggle, s.transferID)
	s.length++
	written := copy(data[:], s.buffer[:s.length])
	s.length = 0
	return uint8(written)
}
