package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionConfigDefaults(t *testing.T) {
	cfg, err := NewConnectionConfig().Host("10.0.0.5").Build()
	require.NoError(t, err)

	assert.Equal(t, ConnectionTCP, cfg.Type())
	assert.True(t, cfg.IsTCP())
	assert.Equal(t, "10.0.0.5:502", cfg.Address())
	assert.Equal(t, 3*time.Second, cfg.Timeout())
}

func TestConnectionConfigSerial(t *testing.T) {
	cfg, err := NewConnectionConfig().
		Type("rtu").
		PortName("/dev/ttyUSB0").
		BaudRate(19200).
		Parity("E").
		Build()
	require.NoError(t, err)

	assert.Equal(t, ConnectionRTU, cfg.Type())
	assert.False(t, cfg.IsTCP())
	assert.Equal(t, 19200, cfg.BaudRate())
	assert.Equal(t, 8, cfg.DataBits())
	assert.Equal(t, 1, cfg.StopBits())
}

func TestConnectionConfigInvalid(t *testing.T) {
	_, err := NewConnectionConfig().Type("UDP").Build()
	assert.Error(t, err)

	_, err = NewConnectionConfig().Type("RTU").Build()
	assert.Error(t, err, "serial without a port name")

	_, err = NewConnectionConfig().Port(70000).Build()
	assert.Error(t, err)
}
