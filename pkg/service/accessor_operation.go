package service

import (
	"context"

	"github.com/anode/modbuspec/pkg/model"
)

// AccessorOperation executes a named accessor: the function code, start
// address and span all come from the specification, so the caller only
// chooses the terminal operation (and optionally overrides the unit id
// bound from the owning device).
type AccessorOperation struct {
	accessor model.Accessor
	op       *Operation
}

func newAccessorOperation(accessor model.Accessor, fc model.FunctionCode, unitID int, supplier ConnectionSupplier) *AccessorOperation {
	op := newOperation(fc, supplier).
		UnitID(unitID).
		Address(int(accessor.StartAddress())).
		Quantity(accessor.RegisterCount())
	return &AccessorOperation{accessor: accessor, op: op}
}

func (a *AccessorOperation) Accessor() model.Accessor { return a.accessor }

func (a *AccessorOperation) FunctionCode() model.FunctionCode { return a.op.FunctionCode() }

// Err returns the first configuration error, if any.
func (a *AccessorOperation) Err() error { return a.op.Err() }

// UnitID overrides the unit id bound from the owning device.
func (a *AccessorOperation) UnitID(unitID int) *AccessorOperation {
	a.op.UnitID(unitID)
	return a
}

// Read reads the accessor's full span as ints.
func (a *AccessorOperation) Read(ctx context.Context) ([]int, error) {
	return a.op.Read(ctx)
}

// ReadSingle reads one value; the accessor must span exactly one register.
func (a *AccessorOperation) ReadSingle(ctx context.Context) (int, error) {
	if err := a.op.Err(); err != nil {
		return 0, err
	}
	if count := a.accessor.RegisterCount(); count != 1 {
		return 0, &UnexpectedResultCountError{Expected: 1, Actual: count}
	}
	return a.op.ReadSingle(ctx)
}

// ReadBooleans reads the accessor's full span as booleans.
func (a *AccessorOperation) ReadBooleans(ctx context.Context) ([]bool, error) {
	return a.op.ReadBooleans(ctx)
}

// Write writes a single register value; the accessor must span exactly one
// register.
func (a *AccessorOperation) Write(ctx context.Context, value int) error {
	if err := a.op.Err(); err != nil {
		return err
	}
	if count := a.accessor.RegisterCount(); count != 1 {
		return &ArrayLengthMismatchError{Expected: count, Actual: 1}
	}
	return a.op.Write(ctx, value)
}

// WriteBool writes a single coil; the accessor must span exactly one coil.
func (a *AccessorOperation) WriteBool(ctx context.Context, value bool) error {
	if err := a.op.Err(); err != nil {
		return err
	}
	if count := a.accessor.RegisterCount(); count != 1 {
		return &ArrayLengthMismatchError{Expected: count, Actual: 1}
	}
	return a.op.WriteBool(ctx, value)
}

// WriteValues writes the accessor's full span; len(values) must equal the
// accessor's register count.
func (a *AccessorOperation) WriteValues(ctx context.Context, values []int) error {
	if err := a.op.Err(); err != nil {
		return err
	}
	if count := a.accessor.RegisterCount(); len(values) != count {
		return &ArrayLengthMismatchError{Expected: count, Actual: len(values)}
	}
	return a.op.WriteValues(ctx, values)
}

// WriteBools writes the accessor's full span; len(values) must equal the
// accessor's register count.
func (a *AccessorOperation) WriteBools(ctx context.Context, values []bool) error {
	if err := a.op.Err(); err != nil {
		return err
	}
	if count := a.accessor.RegisterCount(); len(values) != count {
		return &ArrayLengthMismatchError{Expected: count, Actual: len(values)}
	}
	return a.op.WriteBools(ctx, values)
}
