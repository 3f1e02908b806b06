package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// S1 - single-frame message, classic CAN.
func TestEncodeIDMessage(t *testing.T) {
	h := NewMessageHeader(PriorityNominal, SubjectID(1234), NodeID(42), true, TransferID(7))
	id := EncodeID(h, nil)

	assert.True(t, id.Valid())
	assert.EqualValues(t, 0x1064D22A, id)
}

// S2 - anonymous single-frame message.
func TestEncodeIDAnonymousMessage(t *testing.T) {
	h := NewMessageHeader(PriorityNominal, SubjectID(1234), 0, false, TransferID(0))
	id := EncodeID(h, []byte{0x00, 0x00, 0x00})

	assert.NotZero(t, uint32(id)&(1<<bitAnonymousOrReqNotResp))
	assert.EqualValues(t, 0x55, uint32(id)&0x7F)
}

func TestAnonymousPseudoIDSkipsReservedRange(t *testing.T) {
	// A payload chosen so the raw XOR fold lands inside the reserved range,
	// confirming the decrement loop walks it back out.
	id := anonymousPseudoID([]byte{0x55 ^ 0x78})
	assert.True(t, id < diagnosticReservedLow || id > diagnosticReservedHigh)
}

// S4 - service request.
func TestEncodeIDRequest(t *testing.T) {
	h := NewRequestHeader(PriorityHigh, ServiceID(511), NodeID(10), NodeID(20), TransferID(3))
	id := EncodeID(h, nil)

	raw := uint32(id)
	assert.NotZero(t, raw&(1<<bitServiceNotMessage))
	assert.NotZero(t, raw&(1<<bitAnonymousOrReqNotResp))
	assert.EqualValues(t, 511, (raw>>14)&0x1FF)
	assert.EqualValues(t, 20, (raw>>7)&0x7F)
	assert.EqualValues(t, 10, raw&0x7F)
}

func TestEncodeIDResponseClearsRequestBit(t *testing.T) {
	h := NewResponseHeader(PriorityHigh, ServiceID(511), NodeID(10), NodeID(20), TransferID(3))
	id := EncodeID(h, nil)

	assert.Zero(t, uint32(id)&(1<<bitAnonymousOrReqNotResp))
}

func TestEncodeIDPanicsOnUnknownKind(t *testing.T) {
	h := Header{Kind: Kind(99)}
	assert.Panics(t, func() { EncodeID(h, nil) })
}
