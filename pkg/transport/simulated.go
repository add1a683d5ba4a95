package transport

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Simulated is an in-memory Transport used when no real transport has been
// configured. It keeps a register and coil image per unit so reads return
// what was written, and logs every operation. A fresh Spec dispatches
// against a Simulated transport rather than a nil one, so the
// "unconfigured" state is explicit and observable.
type Simulated struct {
	id        uuid.UUID
	logger    *zap.Logger
	mu        sync.Mutex
	registers map[uint32]uint16
	coils     map[uint32]bool
	connected bool
}

func NewSimulated(logger *zap.Logger) *Simulated {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Simulated{
		id:        uuid.New(),
		logger:    logger,
		registers: make(map[uint32]uint16),
		coils:     make(map[uint32]bool),
		connected: true,
	}
}

func (s *Simulated) ID() uuid.UUID { return s.id }

func slot(unitID int, address uint16) uint32 {
	return uint32(unitID)<<16 | uint32(address)
}

func (s *Simulated) ReadCoils(_ context.Context, unitID int, address, quantity uint16) ([]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]bool, quantity)
	for i := range out {
		out[i] = s.coils[slot(unitID, address+uint16(i))]
	}
	s.logOp("ReadCoils", unitID, address, int(quantity))
	return out, nil
}

func (s *Simulated) ReadDiscreteInputs(_ context.Context, unitID int, address, quantity uint16) ([]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]bool, quantity)
	for i := range out {
		out[i] = s.coils[slot(unitID, address+uint16(i))]
	}
	s.logOp("ReadDiscreteInputs", unitID, address, int(quantity))
	return out, nil
}

func (s *Simulated) ReadHoldingRegisters(_ context.Context, unitID int, address, quantity uint16) ([]uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint16, quantity)
	for i := range out {
		out[i] = s.registers[slot(unitID, address+uint16(i))]
	}
	s.logOp("ReadHoldingRegisters", unitID, address, int(quantity))
	return out, nil
}

func (s *Simulated) ReadInputRegisters(_ context.Context, unitID int, address, quantity uint16) ([]uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint16, quantity)
	for i := range out {
		out[i] = s.registers[slot(unitID, address+uint16(i))]
	}
	s.logOp("ReadInputRegisters", unitID, address, int(quantity))
	return out, nil
}

func (s *Simulated) WriteSingleCoil(_ context.Context, unitID int, address uint16, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coils[slot(unitID, address)] = value
	s.logOp("WriteSingleCoil", unitID, address, 1)
	return nil
}

func (s *Simulated) WriteSingleRegister(_ context.Context, unitID int, address, value uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registers[slot(unitID, address)] = value
	s.logOp("WriteSingleRegister", unitID, address, 1)
	return nil
}

func (s *Simulated) WriteMultipleCoils(_ context.Context, unitID int, address uint16, values []bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range values {
		s.coils[slot(unitID, address+uint16(i))] = v
	}
	s.logOp("WriteMultipleCoils", unitID, address, len(values))
	return nil
}

func (s *Simulated) WriteMultipleRegisters(_ context.Context, unitID int, address uint16, values []uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, v := range values {
		s.registers[slot(unitID, address+uint16(i))] = v
	}
	s.logOp("WriteMultipleRegisters", unitID, address, len(values))
	return nil
}

func (s *Simulated) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
	return nil
}

func (s *Simulated) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	return nil
}

func (s *Simulated) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Simulated) logOp(op string, unitID int, address uint16, count int) {
	s.logger.Debug("simulated modbus operation",
		zap.String("session", s.id.String()),
		zap.String("op", op),
		zap.Int("unit_id", unitID),
		zap.Uint16("address", address),
		zap.Int("count", count))
}
