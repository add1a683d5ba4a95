package model

import (
	"fmt"
	"strings"
)

// Register describes a single addressable location in a device's register map.
// Values are immutable once created.
type Register struct {
	name     string
	address  uint16
	dataType string
	access   string
}

func NewRegister(name string, address uint16, dataType, access string) (Register, error) {
	if strings.TrimSpace(name) == "" {
		return Register{}, fmt.Errorf("register name must not be empty")
	}
	return Register{
		name:     name,
		address:  address,
		dataType: dataType,
		access:   access,
	}, nil
}

func (r Register) Name() string     { return r.name }
func (r Register) Address() uint16  { return r.address }
func (r Register) DataType() string { return r.dataType }
func (r Register) Access() string   { return r.access }

// Readable reports whether the access string grants reads ("R", "RW", ...).
func (r Register) Readable() bool {
	return strings.Contains(strings.ToUpper(r.access), "R")
}

// Writable reports whether the access string grants writes ("W", "RW", ...).
func (r Register) Writable() bool {
	return strings.Contains(strings.ToUpper(r.access), "W")
}

func (r Register) String() string {
	return fmt.Sprintf("Register{name=%q, address=%d, dataType=%q, access=%q}",
		r.name, r.address, r.dataType, r.access)
}
