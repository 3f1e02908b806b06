package socketcan

import (
	"testing"

	can "github.com/samsamfire/cyphalcan/pkg/can"
	"github.com/stretchr/testify/assert"
)

func TestSendRejectsFDFrames(t *testing.T) {
	bus := &Bus{}
	frame := can.Frame{ID: 0x100, Len: 12}
	err := bus.Send(frame)
	assert.NotNil(t, err)
}
