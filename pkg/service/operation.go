package service

import (
	"context"

	"github.com/anode/modbuspec/pkg/model"
)

const (
	maxUnitID   = 247
	maxAddress  = 65535
	maxQuantity = 2000
)

// Operation is the fluent builder for low-level calls: configure unit id,
// address and quantity in any order, then invoke a terminal operation.
// A rejected setter leaves the previous valid value intact and records the
// error; terminal operations surface it before any I/O. Each function code
// permits a fixed set of terminal operations:
//
//	1 ReadCoils               Read, ReadSingle, ReadBooleans
//	2 ReadDiscreteInputs      Read, ReadSingle, ReadBooleans
//	3 ReadHoldingRegisters    Read, ReadSingle
//	4 ReadInputRegisters      Read, ReadSingle
//	5 WriteSingleCoil         WriteBool
//	6 WriteSingleRegister     Write
//	15 WriteMultipleCoils     WriteBools
//	16 WriteMultipleRegisters WriteValues
type Operation struct {
	fc       model.FunctionCode
	supplier ConnectionSupplier

	unitID   int
	address  uint16
	quantity int
	err      error
}

func newOperation(fc model.FunctionCode, supplier ConnectionSupplier) *Operation {
	return &Operation{fc: fc, supplier: supplier, unitID: 1, quantity: 1}
}

func (o *Operation) FunctionCode() model.FunctionCode { return o.fc }

// Err returns the first configuration error, if any.
func (o *Operation) Err() error { return o.err }

func (o *Operation) fail(err error) {
	if o.err == nil {
		o.err = err
	}
}

// UnitID sets the target unit (slave) id, 0-247.
func (o *Operation) UnitID(unitID int) *Operation {
	if unitID < 0 || unitID > maxUnitID {
		o.fail(&RangeError{Field: "unit id", Value: unitID, Min: 0, Max: maxUnitID})
		return o
	}
	o.unitID = unitID
	return o
}

// Address sets the starting address, 0-65535.
func (o *Operation) Address(address int) *Operation {
	if address < 0 || address > maxAddress {
		o.fail(&RangeError{Field: "address", Value: address, Min: 0, Max: maxAddress})
		return o
	}
	o.address = uint16(address)
	return o
}

// Quantity sets the number of registers or coils, 1-2000.
func (o *Operation) Quantity(quantity int) *Operation {
	if quantity < 1 || quantity > maxQuantity {
		o.fail(&RangeError{Field: "quantity", Value: quantity, Min: 1, Max: maxQuantity})
		return o
	}
	o.quantity = quantity
	return o
}

// Read executes the configured read and returns the values as ints
// (coils and discrete inputs as 0/1).
func (o *Operation) Read(ctx context.Context) ([]int, error) {
	if o.err != nil {
		return nil, o.err
	}
	code := o.fc.Number()
	switch code {
	case model.FuncReadCoils, model.FuncReadDiscreteInputs, model.FuncReadHoldingRegisters, model.FuncReadInputRegisters:
	default:
		return nil, &UnsupportedOperationError{Code: code, Operation: "read"}
	}

	conn, err := o.supplier()
	if err != nil {
		return nil, err
	}

	switch code {
	case model.FuncReadCoils:
		bits, err := conn.ReadCoils(ctx, o.unitID, o.address, uint16(o.quantity))
		if err != nil {
			return nil, err
		}
		return boolsToInts(bits), nil
	case model.FuncReadDiscreteInputs:
		bits, err := conn.ReadDiscreteInputs(ctx, o.unitID, o.address, uint16(o.quantity))
		if err != nil {
			return nil, err
		}
		return boolsToInts(bits), nil
	case model.FuncReadHoldingRegisters:
		regs, err := conn.ReadHoldingRegisters(ctx, o.unitID, o.address, uint16(o.quantity))
		if err != nil {
			return nil, err
		}
		return registersToInts(regs), nil
	default: // FuncReadInputRegisters
		regs, err := conn.ReadInputRegisters(ctx, o.unitID, o.address, uint16(o.quantity))
		if err != nil {
			return nil, err
		}
		return registersToInts(regs), nil
	}
}

// ReadSingle reads exactly one value. The configured quantity must be 1.
func (o *Operation) ReadSingle(ctx context.Context) (int, error) {
	if o.err != nil {
		return 0, o.err
	}
	if o.quantity != 1 {
		return 0, &UnexpectedResultCountError{Expected: 1, Actual: o.quantity}
	}
	values, err := o.Read(ctx)
	if err != nil {
		return 0, err
	}
	return values[0], nil
}

// ReadBooleans reads coils or discrete inputs as booleans.
func (o *Operation) ReadBooleans(ctx context.Context) ([]bool, error) {
	if o.err != nil {
		return nil, o.err
	}
	code := o.fc.Number()
	if code != model.FuncReadCoils && code != model.FuncReadDiscreteInputs {
		return nil, &UnsupportedOperationError{Code: code, Operation: "boolean read"}
	}

	conn, err := o.supplier()
	if err != nil {
		return nil, err
	}
	if code == model.FuncReadCoils {
		return conn.ReadCoils(ctx, o.unitID, o.address, uint16(o.quantity))
	}
	return conn.ReadDiscreteInputs(ctx, o.unitID, o.address, uint16(o.quantity))
}

// Write writes a single register value (function code 6).
func (o *Operation) Write(ctx context.Context, value int) error {
	if o.err != nil {
		return o.err
	}
	if o.fc.Number() != model.FuncWriteSingleRegister {
		return &UnsupportedOperationError{Code: o.fc.Number(), Operation: "single register write"}
	}
	conn, err := o.supplier()
	if err != nil {
		return err
	}
	return conn.WriteSingleRegister(ctx, o.unitID, o.address, uint16(value))
}

// WriteBool writes a single coil (function code 5).
func (o *Operation) WriteBool(ctx context.Context, value bool) error {
	if o.err != nil {
		return o.err
	}
	if o.fc.Number() != model.FuncWriteSingleCoil {
		return &UnsupportedOperationError{Code: o.fc.Number(), Operation: "single coil write"}
	}
	conn, err := o.supplier()
	if err != nil {
		return err
	}
	return conn.WriteSingleCoil(ctx, o.unitID, o.address, value)
}

// WriteValues writes multiple registers (function code 16).
func (o *Operation) WriteValues(ctx context.Context, values []int) error {
	if o.err != nil {
		return o.err
	}
	if o.fc.Number() != model.FuncWriteMultipleRegisters {
		return &UnsupportedOperationError{Code: o.fc.Number(), Operation: "multiple register write"}
	}
	if len(values) < 1 || len(values) > maxQuantity {
		return &RangeError{Field: "value count", Value: len(values), Min: 1, Max: maxQuantity}
	}
	conn, err := o.supplier()
	if err != nil {
		return err
	}
	return conn.WriteMultipleRegisters(ctx, o.unitID, o.address, intsToRegisters(values))
}

// WriteBools writes multiple coils (function code 15).
func (o *Operation) WriteBools(ctx context.Context, values []bool) error {
	if o.err != nil {
		return o.err
	}
	if o.fc.Number() != model.FuncWriteMultipleCoils {
		return &UnsupportedOperationError{Code: o.fc.Number(), Operation: "multiple coil write"}
	}
	if len(values) < 1 || len(values) > maxQuantity {
		return &RangeError{Field: "value count", Value: len(values), Min: 1, Max: maxQuantity}
	}
	conn, err := o.supplier()
	if err != nil {
		return err
	}
	return conn.WriteMultipleCoils(ctx, o.unitID, o.address, values)
}

func boolsToInts(bits []bool) []int {
	out := make([]int, len(bits))
	for i, b := range bits {
		if b {
			out[i] = 1
		}
	}
	return out
}

func registersToInts(regs []uint16) []int {
	out := make([]int, len(regs))
	for i, r := range regs {
		out[i] = int(r)
	}
	return out
}

func intsToRegisters(values []int) []uint16 {
	out := make([]uint16, len(values))
	for i, v := range values {
		out[i] = uint16(v)
	}
	return out
}
