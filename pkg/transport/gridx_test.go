package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anode/modbuspec/pkg/model"
)

func TestUnpackBits(t *testing.T) {
	// 0b10100101: bits 0, 2, 5, 7 set, LSB first.
	bits := unpackBits([]byte{0xA5}, 8)
	assert.Equal(t, []bool{true, false, true, false, false, true, false, true}, bits)

	bits = unpackBits([]byte{0xA5}, 3)
	assert.Equal(t, []bool{true, false, true}, bits)

	bits = unpackBits([]byte{0xFF, 0x01}, 9)
	assert.Equal(t, []bool{true, true, true, true, true, true, true, true, true}, bits)
}

func TestPackBits(t *testing.T) {
	data := packBits([]bool{true, false, true, false, false, true, false, true})
	assert.Equal(t, []byte{0xA5}, data)

	data = packBits([]bool{true, true, true, true, true, true, true, true, true})
	assert.Equal(t, []byte{0xFF, 0x01}, data)
}

func TestRegisterPacking(t *testing.T) {
	regs := unpackRegisters([]byte{0x12, 0x34, 0xAB, 0xCD})
	assert.Equal(t, []uint16{0x1234, 0xABCD}, regs)

	data := packRegisters([]uint16{0x1234, 0xABCD})
	assert.Equal(t, []byte{0x12, 0x34, 0xAB, 0xCD}, data)
}

func TestFromConfig(t *testing.T) {
	tcp, err := model.NewConnectionConfig().Host("127.0.0.1").Port(1502).Build()
	require.NoError(t, err)
	client, err := FromConfig(tcp)
	require.NoError(t, err)
	assert.False(t, client.IsConnected())

	rtu, err := model.NewConnectionConfig().Type("RTU").PortName("/dev/ttyUSB0").Build()
	require.NoError(t, err)
	_, err = FromConfig(rtu)
	require.NoError(t, err)

	ascii, err := model.NewConnectionConfig().Type("ASCII").PortName("/dev/ttyUSB0").Build()
	require.NoError(t, err)
	_, err = FromConfig(ascii)
	require.NoError(t, err)
}
