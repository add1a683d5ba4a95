package transport

import (
	"context"
	"fmt"
	"sync"

	gridx "github.com/grid-x/modbus"

	"github.com/anode/modbuspec/pkg/model"
)

// gridxHandler is the part of the grid-x handler API the client needs:
// connection lifecycle plus per-request slave addressing.
type gridxHandler interface {
	Connect() error
	Close() error
	SetSlave(slaveID byte)
}

// Client is a Transport backed by the grid-x/modbus library. The mutex
// serializes requests so a single connection never carries two in-flight
// operations.
type Client struct {
	handler   gridxHandler
	client    gridx.Client
	mu        sync.Mutex
	connected bool
}

// NewTCP creates a Modbus TCP transport for the given host:port address.
func NewTCP(address string, cfg model.ConnectionConfig) *Client {
	handler := gridx.NewTCPClientHandler(address)
	handler.Timeout = cfg.Timeout()
	return &Client{handler: handler, client: gridx.NewClient(handler)}
}

// NewRTU creates a Modbus RTU transport for the given serial device.
func NewRTU(cfg model.ConnectionConfig) *Client {
	handler := gridx.NewRTUClientHandler(cfg.PortName())
	handler.BaudRate = cfg.BaudRate()
	handler.DataBits = cfg.DataBits()
	handler.StopBits = cfg.StopBits()
	handler.Parity = cfg.Parity()
	handler.Timeout = cfg.Timeout()
	return &Client{handler: handler, client: gridx.NewClient(handler)}
}

// NewASCII creates a Modbus ASCII transport for the given serial device.
func NewASCII(cfg model.ConnectionConfig) *Client {
	handler := gridx.NewASCIIClientHandler(cfg.PortName())
	handler.BaudRate = cfg.BaudRate()
	handler.DataBits = cfg.DataBits()
	handler.StopBits = cfg.StopBits()
	handler.Parity = cfg.Parity()
	handler.Timeout = cfg.Timeout()
	return &Client{handler: handler, client: gridx.NewClient(handler)}
}

// FromConfig builds the transport matching a specification's connection
// block.
func FromConfig(cfg model.ConnectionConfig) (*Client, error) {
	switch cfg.Type() {
	case model.ConnectionTCP:
		return NewTCP(cfg.Address(), cfg), nil
	case model.ConnectionRTU:
		return NewRTU(cfg), nil
	case model.ConnectionASCII:
		return NewASCII(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported connection type %q", cfg.Type())
	}
}

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connected {
		return nil
	}
	if err := c.handler.Connect(); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	c.connected = true
	return nil
}

func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}
	err := c.handler.Close()
	c.connected = false
	return err
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) ReadCoils(ctx context.Context, unitID int, address, quantity uint16) ([]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.SetSlave(byte(unitID))
	data, err := c.client.ReadCoils(ctx, address, quantity)
	if err != nil {
		return nil, &Error{Op: "ReadCoils", UnitID: unitID, Address: address, Err: err}
	}
	return unpackBits(data, int(quantity)), nil
}

func (c *Client) ReadDiscreteInputs(ctx context.Context, unitID int, address, quantity uint16) ([]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.SetSlave(byte(unitID))
	data, err := c.client.ReadDiscreteInputs(ctx, address, quantity)
	if err != nil {
		return nil, &Error{Op: "ReadDiscreteInputs", UnitID: unitID, Address: address, Err: err}
	}
	return unpackBits(data, int(quantity)), nil
}

func (c *Client) ReadHoldingRegisters(ctx context.Context, unitID int, address, quantity uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.SetSlave(byte(unitID))
	data, err := c.client.ReadHoldingRegisters(ctx, address, quantity)
	if err != nil {
		return nil, &Error{Op: "ReadHoldingRegisters", UnitID: unitID, Address: address, Err: err}
	}
	return unpackRegisters(data), nil
}

func (c *Client) ReadInputRegisters(ctx context.Context, unitID int, address, quantity uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.SetSlave(byte(unitID))
	data, err := c.client.ReadInputRegisters(ctx, address, quantity)
	if err != nil {
		return nil, &Error{Op: "ReadInputRegisters", UnitID: unitID, Address: address, Err: err}
	}
	return unpackRegisters(data), nil
}

func (c *Client) WriteSingleCoil(ctx context.Context, unitID int, address uint16, value bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.SetSlave(byte(unitID))
	// Per protocol, ON is 0xFF00 and OFF is 0x0000.
	var raw uint16
	if value {
		raw = 0xFF00
	}
	if _, err := c.client.WriteSingleCoil(ctx, address, raw); err != nil {
		return &Error{Op: "WriteSingleCoil", UnitID: unitID, Address: address, Err: err}
	}
	return nil
}

func (c *Client) WriteSingleRegister(ctx context.Context, unitID int, address, value uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.SetSlave(byte(unitID))
	if _, err := c.client.WriteSingleRegister(ctx, address, value); err != nil {
		return &Error{Op: "WriteSingleRegister", UnitID: unitID, Address: address, Err: err}
	}
	return nil
}

func (c *Client) WriteMultipleCoils(ctx context.Context, unitID int, address uint16, values []bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.SetSlave(byte(unitID))
	if _, err := c.client.WriteMultipleCoils(ctx, address, uint16(len(values)), packBits(values)); err != nil {
		return &Error{Op: "WriteMultipleCoils", UnitID: unitID, Address: address, Err: err}
	}
	return nil
}

func (c *Client) WriteMultipleRegisters(ctx context.Context, unitID int, address uint16, values []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler.SetSlave(byte(unitID))
	if _, err := c.client.WriteMultipleRegisters(ctx, address, uint16(len(values)), packRegisters(values)); err != nil {
		return &Error{Op: "WriteMultipleRegisters", UnitID: unitID, Address: address, Err: err}
	}
	return nil
}

// unpackBits expands a packed bit response (LSB first within each byte)
// into count booleans.
func unpackBits(data []byte, count int) []bool {
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		if i/8 < len(data) {
			out[i] = data[i/8]&(1<<uint(i%8)) != 0
		}
	}
	return out
}

func packBits(values []bool) []byte {
	out := make([]byte, (len(values)+7)/8)
	for i, v := range values {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// unpackRegisters converts a big-endian register response into values.
func unpackRegisters(data []byte) []uint16 {
	out := make([]uint16, len(data)/2)
	for i := range out {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}

func packRegisters(values []uint16) []byte {
	out := make([]byte, 2*len(values))
	for i, v := range values {
		out[2*i] = byte(v >> 8)
		out[2*i+1] = byte(v)
	}
	return out
}
