package model

import (
	"fmt"
	"strings"
)

const maxUnitID = 247

// Device is a Modbus device with its accessors and register map. A device
// owns its lists exclusively; the builder copies on build and the getters
// return copies, so instances are effectively immutable.
type Device struct {
	id               string
	unitID           int
	accessors        []Accessor
	holdingRegisters []Register
	inputRegisters   []Register
	coils            []Register
	discreteInputs   []Register
}

func (d *Device) ID() string  { return d.id }
func (d *Device) UnitID() int { return d.unitID }

func (d *Device) Accessors() []Accessor {
	out := make([]Accessor, len(d.accessors))
	copy(out, d.accessors)
	return out
}

func (d *Device) HoldingRegisters() []Register { return copyRegisters(d.holdingRegisters) }
func (d *Device) InputRegisters() []Register   { return copyRegisters(d.inputRegisters) }
func (d *Device) Coils() []Register            { return copyRegisters(d.coils) }
func (d *Device) DiscreteInputs() []Register   { return copyRegisters(d.discreteInputs) }

// AccessorByName finds an accessor on this device. Accessor names are unique
// within a device, but the same name may appear on other devices.
func (d *Device) AccessorByName(name string) (Accessor, bool) {
	for _, a := range d.accessors {
		if a.name == name {
			return a, true
		}
	}
	return Accessor{}, false
}

func (d *Device) HoldingRegisterByName(name string) (Register, bool) {
	return findByName(d.holdingRegisters, name)
}

func (d *Device) HoldingRegisterByAddress(address uint16) (Register, bool) {
	return findByAddress(d.holdingRegisters, address)
}

func (d *Device) InputRegisterByName(name string) (Register, bool) {
	return findByName(d.inputRegisters, name)
}

func (d *Device) InputRegisterByAddress(address uint16) (Register, bool) {
	return findByAddress(d.inputRegisters, address)
}

func (d *Device) CoilByName(name string) (Register, bool) {
	return findByName(d.coils, name)
}

func (d *Device) CoilByAddress(address uint16) (Register, bool) {
	return findByAddress(d.coils, address)
}

func (d *Device) DiscreteInputByName(name string) (Register, bool) {
	return findByName(d.discreteInputs, name)
}

func (d *Device) DiscreteInputByAddress(address uint16) (Register, bool) {
	return findByAddress(d.discreteInputs, address)
}

func (d *Device) String() string {
	return fmt.Sprintf("Device{id=%q, unitId=%d, accessors=%d, holdingRegisters=%d}",
		d.id, d.unitID, len(d.accessors), len(d.holdingRegisters))
}

func findByName(regs []Register, name string) (Register, bool) {
	for _, r := range regs {
		if r.name == name {
			return r, true
		}
	}
	return Register{}, false
}

func findByAddress(regs []Register, address uint16) (Register, bool) {
	for _, r := range regs {
		if r.address == address {
			return r, true
		}
	}
	return Register{}, false
}

func copyRegisters(regs []Register) []Register {
	out := make([]Register, len(regs))
	copy(out, regs)
	return out
}

// DeviceBuilder validates and constructs Device values. Duplicate accessor
// names within the device fail the build.
type DeviceBuilder struct {
	id               string
	unitID           int
	accessors        []Accessor
	holdingRegisters []Register
	inputRegisters   []Register
	coils            []Register
	discreteInputs   []Register
}

func NewDevice() *DeviceBuilder {
	return &DeviceBuilder{}
}

func (b *DeviceBuilder) ID(id string) *DeviceBuilder {
	b.id = id
	return b
}

func (b *DeviceBuilder) UnitID(unitID int) *DeviceBuilder {
	b.unitID = unitID
	return b
}

func (b *DeviceBuilder) AddAccessor(a Accessor) *DeviceBuilder {
	b.accessors = append(b.accessors, a)
	return b
}

func (b *DeviceBuilder) AddHoldingRegister(r Register) *DeviceBuilder {
	b.holdingRegisters = append(b.holdingRegisters, r)
	return b
}

func (b *DeviceBuilder) AddInputRegister(r Register) *DeviceBuilder {
	b.inputRegisters = append(b.inputRegisters, r)
	return b
}

func (b *DeviceBuilder) AddCoil(r Register) *DeviceBuilder {
	b.coils = append(b.coils, r)
	return b
}

func (b *DeviceBuilder) AddDiscreteInput(r Register) *DeviceBuilder {
	b.discreteInputs = append(b.discreteInputs, r)
	return b
}

func (b *DeviceBuilder) Build() (*Device, error) {
	if strings.TrimSpace(b.id) == "" {
		return nil, fmt.Errorf("device id must not be empty")
	}
	if b.unitID < 0 || b.unitID > maxUnitID {
		return nil, fmt.Errorf("device %q: unit id %d out of range (0-%d)", b.id, b.unitID, maxUnitID)
	}
	seen := make(map[string]struct{}, len(b.accessors))
	for _, a := range b.accessors {
		if _, dup := seen[a.Name()]; dup {
			return nil, fmt.Errorf("device %q: duplicate accessor name %q", b.id, a.Name())
		}
		seen[a.Name()] = struct{}{}
	}
	d := &Device{
		id:               b.id,
		unitID:           b.unitID,
		accessors:        make([]Accessor, len(b.accessors)),
		holdingRegisters: copyRegisters(b.holdingRegisters),
		inputRegisters:   copyRegisters(b.inputRegisters),
		coils:            copyRegisters(b.coils),
		discreteInputs:   copyRegisters(b.discreteInputs),
	}
	copy(d.accessors, b.accessors)
	return d, nil
}
