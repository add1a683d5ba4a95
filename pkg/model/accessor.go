package model

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

const maxAddress = 65535

// Accessor is a named shortcut over a function and an address range, so
// callers do not repeat raw addresses. Instances are immutable; build them
// with AccessorBuilder.
type Accessor struct {
	name         string
	function     string
	dataClass    string
	startAddress uint16
	endAddress   uint16
}

func (a Accessor) Name() string         { return a.name }
func (a Accessor) Function() string     { return a.function }
func (a Accessor) DataClass() string    { return a.dataClass }
func (a Accessor) StartAddress() uint16 { return a.startAddress }
func (a Accessor) EndAddress() uint16   { return a.endAddress }

// RegisterCount returns the number of registers the accessor spans.
func (a Accessor) RegisterCount() int {
	return int(a.endAddress) - int(a.startAddress) + 1
}

// IsReadFunction classifies the accessor by its function name.
func (a Accessor) IsReadFunction() bool {
	return strings.Contains(strings.ToLower(a.function), "read")
}

// IsWriteFunction classifies the accessor by its function name.
func (a Accessor) IsWriteFunction() bool {
	return strings.Contains(strings.ToLower(a.function), "write")
}

// Equal compares by identity: name and address range.
func (a Accessor) Equal(other Accessor) bool {
	return a.name == other.name &&
		a.startAddress == other.startAddress &&
		a.endAddress == other.endAddress
}

func (a Accessor) String() string {
	return fmt.Sprintf("Accessor{name=%q, function=%q, dataClass=%q, addresses=%d-%d}",
		a.name, a.function, a.dataClass, a.startAddress, a.endAddress)
}

// AccessorBuilder validates and constructs Accessor values. No partially
// valid accessor is observable: Build fails unless every invariant holds.
type AccessorBuilder struct {
	name         string
	function     string
	dataClass    string
	startAddress int
	endAddress   int
	rangeErr     error
}

func NewAccessor() *AccessorBuilder {
	return &AccessorBuilder{}
}

func (b *AccessorBuilder) Name(name string) *AccessorBuilder {
	b.name = name
	return b
}

func (b *AccessorBuilder) Function(function string) *AccessorBuilder {
	b.function = function
	return b
}

func (b *AccessorBuilder) DataClass(dataClass string) *AccessorBuilder {
	b.dataClass = dataClass
	return b
}

func (b *AccessorBuilder) StartAddress(address int) *AccessorBuilder {
	b.startAddress = address
	return b
}

func (b *AccessorBuilder) EndAddress(address int) *AccessorBuilder {
	b.endAddress = address
	return b
}

// Address sets both start and end to the same value (single register).
func (b *AccessorBuilder) Address(address int) *AccessorBuilder {
	b.startAddress = address
	b.endAddress = address
	return b
}

// AddressRange sets the range from a string like "5" or "1-2".
func (b *AccessorBuilder) AddressRange(spec string) *AccessorBuilder {
	trimmed := strings.TrimSpace(spec)
	if start, end, ok := strings.Cut(trimmed, "-"); ok {
		s, err := cast.ToIntE(strings.TrimSpace(start))
		if err != nil {
			b.rangeErr = fmt.Errorf("invalid start address in range %q: %w", spec, err)
			return b
		}
		e, err := cast.ToIntE(strings.TrimSpace(end))
		if err != nil {
			b.rangeErr = fmt.Errorf("invalid end address in range %q: %w", spec, err)
			return b
		}
		b.startAddress, b.endAddress = s, e
		return b
	}
	addr, err := cast.ToIntE(trimmed)
	if err != nil {
		b.rangeErr = fmt.Errorf("invalid address %q: %w", spec, err)
		return b
	}
	b.startAddress, b.endAddress = addr, addr
	return b
}

func (b *AccessorBuilder) Build() (Accessor, error) {
	if b.rangeErr != nil {
		return Accessor{}, b.rangeErr
	}
	if strings.TrimSpace(b.name) == "" {
		return Accessor{}, fmt.Errorf("accessor name must not be empty")
	}
	if strings.TrimSpace(b.function) == "" {
		return Accessor{}, fmt.Errorf("accessor %q: function must not be empty", b.name)
	}
	if strings.TrimSpace(b.dataClass) == "" {
		return Accessor{}, fmt.Errorf("accessor %q: data class must not be empty", b.name)
	}
	if b.startAddress < 0 || b.startAddress > maxAddress {
		return Accessor{}, fmt.Errorf("accessor %q: start address %d out of range (0-%d)", b.name, b.startAddress, maxAddress)
	}
	if b.endAddress < 0 || b.endAddress > maxAddress {
		return Accessor{}, fmt.Errorf("accessor %q: end address %d out of range (0-%d)", b.name, b.endAddress, maxAddress)
	}
	if b.endAddress < b.startAddress {
		return Accessor{}, fmt.Errorf("accessor %q: end address %d is before start address %d", b.name, b.endAddress, b.startAddress)
	}
	return Accessor{
		name:         b.name,
		function:     b.function,
		dataClass:    b.dataClass,
		startAddress: uint16(b.startAddress),
		endAddress:   uint16(b.endAddress),
	}, nil
}
