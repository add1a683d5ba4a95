package modbuspec

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anode/modbuspec/internal/config"
)

const plantSpec = `<?xml version="1.0" encoding="UTF-8"?>
<ModbusSpec>
  <Connection type="TCP">
    <Host>192.168.1.50</Host>
    <Port>502</Port>
  </Connection>
  <RegisterMap>
    <Device id="Boiler" unitId="1">
      <Accessors>
        <Accessor name="Pressure">
          <Function>ReadHoldingRegisters</Function>
          <DataClass>HoldingRegister</DataClass>
          <AddressRange>10-11</AddressRange>
        </Accessor>
        <Accessor name="Setpoint">
          <Function>WriteSingleRegister</Function>
          <DataClass>HoldingRegister</DataClass>
          <AddressRange>20</AddressRange>
        </Accessor>
      </Accessors>
      <HoldingRegisters>
        <Register name="Pressure" address="10">
          <DataType>uint16</DataType>
          <Access>R</Access>
        </Register>
        <Register name="Setpoint" address="20">
          <DataType>uint16</DataType>
          <Access>RW</Access>
        </Register>
      </HoldingRegisters>
    </Device>
  </RegisterMap>
</ModbusSpec>`

func TestLoadAndRoundTripOnSimulatedBus(t *testing.T) {
	spec := New()
	require.NoError(t, spec.Load([]byte(plantSpec)))
	ctx := context.Background()

	write, err := spec.Function("WriteSingleRegister")
	require.NoError(t, err)
	require.NoError(t, write.Address(100).Write(ctx, 1234))

	read, err := spec.Function("3")
	require.NoError(t, err)
	value, err := read.Address(100).ReadSingle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1234, value)
}

func TestAccessorRoundTrip(t *testing.T) {
	spec := New()
	require.NoError(t, spec.Load([]byte(plantSpec)))
	ctx := context.Background()

	setpoint, err := spec.Accessor("Setpoint")
	require.NoError(t, err)
	require.NoError(t, setpoint.Write(ctx, 77))

	read, err := spec.Function("ReadHoldingRegisters")
	require.NoError(t, err)
	value, err := read.Address(20).ReadSingle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 77, value)

	pressure, err := spec.Accessor("Pressure")
	require.NoError(t, err)
	values, err := pressure.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, values)
}

func TestRegisterAccessOnSimulatedBus(t *testing.T) {
	spec := New()
	require.NoError(t, spec.Load([]byte(plantSpec)))
	ctx := context.Background()

	require.NoError(t, spec.WriteRegister(ctx, "Boiler", "Setpoint", 88))
	value, err := spec.ReadRegister(ctx, "Boiler", "Setpoint")
	require.NoError(t, err)
	assert.Equal(t, 88, value)

	err = spec.WriteRegister(ctx, "Boiler", "Pressure", 1)
	require.Error(t, err, "Pressure is read-only")

	value, err = spec.ReadRegister(ctx, "Boiler", "Pressure")
	require.NoError(t, err)
	assert.Equal(t, 0, value, "the rejected write never touched the bus")
}

func TestCall(t *testing.T) {
	spec := New()
	require.NoError(t, spec.Load([]byte(plantSpec)))

	res := spec.Call(context.Background(), "1", 1, 0, 4)
	require.True(t, res.Success)
	assert.Equal(t, []int{0, 0, 0, 0}, res.Values)
}

func TestLoadJSONProfile(t *testing.T) {
	doc := `{"devices": [{"id": "Pump", "unit_id": 3, "accessors": [
		{"name": "Flow", "function": "ReadInputRegisters", "data_class": "InputRegister", "address_range": "0-1"}
	]}]}`

	spec := New()
	require.NoError(t, spec.Load([]byte(doc)))

	device, ok := spec.Device("Pump")
	require.True(t, ok)
	assert.Equal(t, 3, device.UnitID())

	flow, err := spec.Accessor("Flow")
	require.NoError(t, err)
	values, err := flow.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, values, 2)
}

func TestLoadNamed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "plant.xml"), []byte(plantSpec), 0o644))

	cfg := config.Default()
	cfg.Specs.SearchPaths = []string{dir}

	spec := New(WithConfig(cfg))
	require.NoError(t, spec.LoadNamed("plant"))

	_, ok := spec.Device("Boiler")
	assert.True(t, ok)

	err := spec.LoadNamed("missing")
	assert.Error(t, err)
}

func TestConnectionConfigExposed(t *testing.T) {
	spec := New()
	require.NoError(t, spec.Load([]byte(plantSpec)))

	cfg := spec.ConnectionConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "192.168.1.50:502", cfg.Address())
}

func TestConnectWithoutConnectionBlock(t *testing.T) {
	spec := New()
	require.NoError(t, spec.Load([]byte(`{"devices": [{"id": "d", "unit_id": 1}]}`)))

	assert.Error(t, spec.Connect())
	_, err := spec.NewPool()
	assert.Error(t, err)
}

func TestDefaultFunctionCodesAvailable(t *testing.T) {
	spec := New()
	require.NoError(t, spec.Load([]byte(plantSpec)))

	assert.Len(t, spec.FunctionCodes(), 8)
	assert.True(t, spec.IsConnected(), "the simulated transport reports connected")
}
