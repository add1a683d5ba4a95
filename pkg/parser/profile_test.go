package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pumpProfile = `{
  "connection": {
    "type": "TCP",
    "host": "10.1.2.3",
    "port": 1502,
    "timeout_ms": 1500
  },
  "function_codes": [
    {"code": "3", "name": "ReadHoldingRegisters"},
    {"code": "16", "name": "WriteMultipleRegisters", "description": "Write multiple registers"}
  ],
  "devices": [
    {
      "id": "Pump",
      "unit_id": 7,
      "accessors": [
        {"name": "FlowRate", "function": "ReadHoldingRegisters", "data_class": "HoldingRegister", "address_range": "0-1"}
      ],
      "holding_registers": [
        {"name": "FlowRateHigh", "address": 0, "data_type": "uint16", "access": "R"},
        {"name": "FlowRateLow", "address": 1, "data_type": "uint16", "access": "R"}
      ]
    }
  ]
}`

func TestProfileParse(t *testing.T) {
	p, err := NewProfileParser()
	require.NoError(t, err)

	res, err := p.Parse([]byte(pumpProfile))
	require.NoError(t, err)

	require.NotNil(t, res.Connection)
	assert.Equal(t, "10.1.2.3:1502", res.Connection.Address())
	assert.Equal(t, 1500*time.Millisecond, res.Connection.Timeout())

	require.Len(t, res.Devices, 1)
	device := res.Devices[0]
	assert.Equal(t, 7, device.UnitID())

	flow, ok := device.AccessorByName("FlowRate")
	require.True(t, ok)
	assert.Equal(t, 2, flow.RegisterCount())
}

func TestProfileSchemaViolations(t *testing.T) {
	p, err := NewProfileParser()
	require.NoError(t, err)

	tests := []struct {
		name string
		doc  string
	}{
		{"missing devices", `{"connection": {"type": "TCP"}}`},
		{"unit id above 247", `{"devices": [{"id": "d", "unit_id": 300}]}`},
		{"bad address range pattern", `{"devices": [{"id": "d", "unit_id": 1,
			"accessors": [{"name": "a", "function": "ReadCoils", "data_class": "Coil", "address_range": "1--2"}]}]}`},
		{"unknown field", `{"devices": [{"id": "d", "unit_id": 1, "slave": 2}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tt.doc))
			require.Error(t, err)
			var malformed *MalformedDocumentError
			assert.ErrorAs(t, err, &malformed)
		})
	}
}

func TestProfileRejectsInvalidJSON(t *testing.T) {
	p, err := NewProfileParser()
	require.NoError(t, err)

	_, err = p.Parse([]byte(`{"devices": [`))
	require.Error(t, err)
	var malformed *MalformedDocumentError
	assert.ErrorAs(t, err, &malformed)
}

func TestProfileDuplicateAccessor(t *testing.T) {
	doc := `{"devices": [{"id": "d", "unit_id": 1, "accessors": [
		{"name": "a", "function": "ReadCoils", "data_class": "Coil", "address_range": "1"},
		{"name": "a", "function": "ReadCoils", "data_class": "Coil", "address_range": "2"}
	]}]}`

	p, err := NewProfileParser()
	require.NoError(t, err)

	_, err = p.Parse([]byte(doc))
	require.Error(t, err)
	var dup *DuplicateAccessorError
	assert.ErrorAs(t, err, &dup)
}
