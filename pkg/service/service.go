package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/anode/modbuspec/pkg/model"
	"github.com/anode/modbuspec/pkg/repository"
	"github.com/anode/modbuspec/pkg/transport"
)

// ConnectionSupplier hands the dispatcher its current transport. The
// indirection keeps the dispatch layer independent of where connections
// come from: a standalone client, a pool lease, or a simulated transport.
type ConnectionSupplier func() (transport.Transport, error)

// Service resolves caller intent (function identifiers, accessor names)
// against the loaded specification and produces ready-to-execute
// operations.
type Service struct {
	repo     *repository.Repository
	supplier ConnectionSupplier
	logger   *zap.Logger
}

func New(repo *repository.Repository, supplier ConnectionSupplier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, supplier: supplier, logger: logger}
}

// Function resolves a function identifier to a fluent operation. The
// identifier is matched against numeric codes first, then against function
// names case-insensitively. Substring matches are deliberately not
// supported.
func (s *Service) Function(identifier string) (*Operation, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil, &BlankArgumentError{Arg: "function identifier"}
	}
	fc, ok := s.repo.FunctionCodeByCode(trimmed)
	if !ok {
		fc, ok = s.repo.FunctionCodeByName(trimmed)
	}
	if !ok {
		return nil, &FunctionNotFoundError{Identifier: trimmed}
	}
	return newOperation(fc, s.supplier), nil
}

// Accessor resolves an accessor by name across all devices. The name must
// identify exactly one device; if several devices declare it, the caller
// has to use AccessorOn to disambiguate.
func (s *Service) Accessor(name string) (*AccessorOperation, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, &BlankArgumentError{Arg: "accessor name"}
	}

	var matches []*model.Device
	for _, device := range s.repo.AllDevices() {
		if _, ok := device.AccessorByName(trimmed); ok {
			matches = append(matches, device)
		}
	}
	switch len(matches) {
	case 0:
		return nil, &AccessorNotFoundError{Name: trimmed}
	case 1:
		accessor, _ := matches[0].AccessorByName(trimmed)
		return s.newAccessorOperation(accessor, matches[0])
	default:
		ids := make([]string, len(matches))
		for i, d := range matches {
			ids[i] = d.ID()
		}
		sort.Strings(ids)
		return nil, &AmbiguousAccessorError{Name: trimmed, DeviceIDs: ids}
	}
}

// AccessorOn resolves an accessor by name on a specific device.
func (s *Service) AccessorOn(deviceID, name string) (*AccessorOperation, error) {
	trimmedDevice := strings.TrimSpace(deviceID)
	if trimmedDevice == "" {
		return nil, &BlankArgumentError{Arg: "device id"}
	}
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return nil, &BlankArgumentError{Arg: "accessor name"}
	}

	device, ok := s.repo.DeviceByID(trimmedDevice)
	if !ok {
		return nil, &DeviceNotFoundError{DeviceID: trimmedDevice}
	}
	accessor, ok := device.AccessorByName(trimmedName)
	if !ok {
		return nil, &AccessorNotFoundError{Name: trimmedName, DeviceID: trimmedDevice}
	}
	return s.newAccessorOperation(accessor, device)
}

func (s *Service) newAccessorOperation(accessor model.Accessor, device *model.Device) (*AccessorOperation, error) {
	fc, ok := s.repo.FunctionCodeByName(accessor.Function())
	if !ok {
		return nil, &FunctionNotFoundError{Identifier: accessor.Function()}
	}
	return newAccessorOperation(accessor, fc, device.UnitID(), s.supplier), nil
}

// ReadRegister reads a named holding register on a device. The register's
// access string must grant reads; a write-only register is rejected before
// any I/O.
func (s *Service) ReadRegister(ctx context.Context, deviceID, registerName string) (int, error) {
	device, reg, err := s.holdingRegister(deviceID, registerName)
	if err != nil {
		return 0, err
	}
	if !reg.Readable() {
		return 0, &RegisterAccessError{Name: reg.Name(), DeviceID: device.ID(), Access: reg.Access(), Operation: "reads"}
	}
	conn, err := s.supplier()
	if err != nil {
		return 0, err
	}
	values, err := conn.ReadHoldingRegisters(ctx, device.UnitID(), reg.Address(), 1)
	if err != nil {
		return 0, err
	}
	if len(values) != 1 {
		return 0, &UnexpectedResultCountError{Expected: 1, Actual: len(values)}
	}
	return int(values[0]), nil
}

// WriteRegister writes a named holding register on a device. The register's
// access string must grant writes.
func (s *Service) WriteRegister(ctx context.Context, deviceID, registerName string, value int) error {
	device, reg, err := s.holdingRegister(deviceID, registerName)
	if err != nil {
		return err
	}
	if !reg.Writable() {
		return &RegisterAccessError{Name: reg.Name(), DeviceID: device.ID(), Access: reg.Access(), Operation: "writes"}
	}
	conn, err := s.supplier()
	if err != nil {
		return err
	}
	return conn.WriteSingleRegister(ctx, device.UnitID(), reg.Address(), uint16(value))
}

func (s *Service) holdingRegister(deviceID, registerName string) (*model.Device, model.Register, error) {
	trimmedDevice := strings.TrimSpace(deviceID)
	if trimmedDevice == "" {
		return nil, model.Register{}, &BlankArgumentError{Arg: "device id"}
	}
	trimmedName := strings.TrimSpace(registerName)
	if trimmedName == "" {
		return nil, model.Register{}, &BlankArgumentError{Arg: "register name"}
	}
	device, ok := s.repo.DeviceByID(trimmedDevice)
	if !ok {
		return nil, model.Register{}, &DeviceNotFoundError{DeviceID: trimmedDevice}
	}
	reg, ok := device.HoldingRegisterByName(trimmedName)
	if !ok {
		return nil, model.Register{}, &RegisterNotFoundError{Name: trimmedName, DeviceID: trimmedDevice}
	}
	return device, reg, nil
}

// Result is the outcome of a low-level CallFunction invocation.
type Result struct {
	Success bool
	Message string
	Values  []int
}

// CallFunction resolves and executes a read function in one step. Write
// functions need a value and therefore the fluent API; calling them here
// fails without touching the transport.
func (s *Service) CallFunction(ctx context.Context, identifier string, unitID, address, quantity int) Result {
	op, err := s.Function(identifier)
	if err != nil {
		return Result{Message: err.Error()}
	}
	if !op.FunctionCode().IsRead() {
		return Result{Message: fmt.Sprintf("function %s is a write operation; use the fluent API to supply values", op.FunctionCode().Code)}
	}
	values, err := op.UnitID(unitID).Address(address).Quantity(quantity).Read(ctx)
	if err != nil {
		s.logger.Debug("function call failed", zap.String("function", identifier), zap.Error(err))
		return Result{Message: err.Error()}
	}
	return Result{
		Success: true,
		Message: fmt.Sprintf("read %d value(s) from address %d", len(values), address),
		Values:  values,
	}
}
