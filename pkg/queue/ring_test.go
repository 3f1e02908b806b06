package queue

import (
	"testing"

	"github.com/samsamfire/cyphalcan/pkg/transfer"
	"github.com/stretchr/testify/assert"
)

func TestRingReserveAndPush(t *testing.T) {
	r := NewRing[uint64](2)

	assert.Nil(t, r.TryReserve(2))
	assert.Nil(t, r.PushFrame(transfer.Frame[uint64]{ID: 1}))
	assert.Nil(t, r.PushFrame(transfer.Frame[uint64]{ID: 2}))
	assert.Equal(t, 2, r.Len())

	err := r.TryReserve(1)
	assert.ErrorIs(t, err, transfer.ErrOutOfMemory)
}

func TestRingPopOrder(t *testing.T) {
	r := NewRing[uint64](4)
	_ = r.PushFrame(transfer.Frame[uint64]{ID: 1})
	_ = r.PushFrame(transfer.Frame[uint64]{ID: 2})

	f, ok := r.Pop()
	assert.True(t, ok)
	assert.EqualValues(t, 1, f.ID)

	f, ok = r.Pop()
	assert.True(t, ok)
	assert.EqualValues(t, 2, f.ID)

	_, ok = r.Pop()
	assert.False(t, ok)
}

func TestRingWrapsAround(t *testing.T) {
	r := NewRing[uint64](2)
	for i := 0; i < 5; i++ {
		assert.Nil(t, r.PushFrame(transfer.Frame[uint64]{ID: transfer.CanID(i)}))
		f, ok := r.Pop()
		assert.True(t, ok)
		assert.EqualValues(t, i, f.ID)
	}
}

func TestRingPushFrameFailsWhenFull(t *testing.T) {
	r := NewRing[uint64](1)
	assert.Nil(t, r.PushFrame(transfer.Frame[uint64]{}))
	err := r.PushFrame(transfer.Frame[uint64]{})
	assert.ErrorIs(t, err, transfer.ErrOutOfMemory)
}

func TestRingMinimumCapacityIsOne(t *testing.T) {
	r := NewRing[uint64](0)
	assert.Nil(t, r.TryReserve(1))
	assert.NotNil(t, r.TryReserve(2))
}
