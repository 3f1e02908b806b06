package virtual

import (
	"sync"
	"testing"
	"time"

	can "github.com/samsamfire/cyphalcan/pkg/can"
	"github.com/stretchr/testify/assert"
)

type frameCollector struct {
	mu     sync.Mutex
	frames []can.Frame
}

func (c *frameCollector) Handle(frame can.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame)
}

func (c *frameCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	frame := can.Frame{ID: 0x1064D22A, Flags: can.FlagFD, Len: 12}
	for i := range frame.Data[:frame.Len] {
		frame.Data[i] = byte(i)
	}

	wire, err := serializeFrame(frame)
	assert.Nil(t, err)
	// 4 byte length prefix + 4 id + 1 flags + 1 len + payload
	assert.Equal(t, 4+4+1+1+int(frame.Len), len(wire))

	got, err := deserializeFrame(wire[4:])
	assert.Nil(t, err)
	assert.Equal(t, frame.ID, got.ID)
	assert.Equal(t, frame.Flags, got.Flags)
	assert.Equal(t, frame.Len, got.Len)
	assert.Equal(t, frame.Data[:frame.Len], got.Data[:got.Len])
}

func TestDeserializeRejectsTruncatedBody(t *testing.T) {
	_, err := deserializeFrame([]byte{0, 0, 0, 0, 1})
	assert.NotNil(t, err)
}

func TestReceiveOwnLoopsSendBackToSubscriber(t *testing.T) {
	bus, err := NewVirtualCanBus("unused")
	assert.Nil(t, err)
	vbus := bus.(*Bus)
	defer vbus.Disconnect()

	collector := &frameCollector{}
	vbus.frameListener = collector

	frame := can.Frame{ID: 0x111, Len: 8}
	assert.NotNil(t, vbus.Send(frame)) // no connection and no loopback yet
	assert.Equal(t, 0, collector.count())

	vbus.SetReceiveOwn(true)
	assert.Nil(t, vbus.Send(frame))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, collector.count())
}
