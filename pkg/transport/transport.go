package transport

import (
	"context"
	"fmt"
)

// Transport is the protocol collaborator boundary. Implementations perform
// the actual Modbus framing and I/O for the eight standard operations; the
// dispatch layer above validates everything before calling in and wraps
// failures without reinterpreting them.
//
// A single Transport must not carry two concurrent in-flight requests;
// callers needing concurrency borrow distinct connections from a pool.
type Transport interface {
	ReadCoils(ctx context.Context, unitID int, address, quantity uint16) ([]bool, error)
	ReadDiscreteInputs(ctx context.Context, unitID int, address, quantity uint16) ([]bool, error)
	ReadHoldingRegisters(ctx context.Context, unitID int, address, quantity uint16) ([]uint16, error)
	ReadInputRegisters(ctx context.Context, unitID int, address, quantity uint16) ([]uint16, error)
	WriteSingleCoil(ctx context.Context, unitID int, address uint16, value bool) error
	WriteSingleRegister(ctx context.Context, unitID int, address, value uint16) error
	WriteMultipleCoils(ctx context.Context, unitID int, address uint16, values []bool) error
	WriteMultipleRegisters(ctx context.Context, unitID int, address uint16, values []uint16) error

	Connect() error
	Disconnect() error
	IsConnected() bool
}

// Factory creates a connected Transport. The connection pool uses it to
// populate itself and to replace dead connections.
type Factory func() (Transport, error)

// Error wraps a transport-level failure with the operation context it
// occurred in. The dispatch layer never retries these.
type Error struct {
	Op      string
	UnitID  int
	Address uint16
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport %s failed (unit %d, address %d): %v", e.Op, e.UnitID, e.Address, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
