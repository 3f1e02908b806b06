package can

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMtuValid(t *testing.T) {
	for _, m := range []Mtu{MtuClassic, MtuFD12, MtuFD16, MtuFD20, MtuFD24, MtuFD32, MtuFD48, MtuFD64} {
		assert.True(t, m.Valid())
	}
	assert.False(t, Mtu(9).Valid())
	assert.False(t, Mtu(0).Valid())
}

func TestMtuIsFD(t *testing.T) {
	assert.False(t, MtuClassic.IsFD())
	assert.True(t, MtuFD12.IsFD())
}

func TestCeilDLC(t *testing.T) {
	cases := map[int]uint8{
		0:  0,
		8:  8,
		9:  uint8(MtuFD12),
		12: uint8(MtuFD12),
		13: uint8(MtuFD16),
		40: uint8(MtuFD48),
		65: uint8(MtuFD64),
	}
	for in, want := range cases {
		assert.Equal(t, want, CeilDLC(in), "input %d", in)
	}
}

func TestRegisterAndCreateInterface(t *testing.T) {
	RegisterInterface("test-loopback", func(channel string) (Bus, error) {
		return nil, nil
	})
	bus, err := NewBus("test-loopback", "chan0", 500000)
	assert.Nil(t, err)
	assert.Nil(t, bus)

	_, err = NewBus("does-not-exist", "chan0", 500000)
	assert.NotNil(t, err)
}
