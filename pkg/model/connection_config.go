package model

import (
	"fmt"
	"strings"
	"time"
)

// Connection types supported by a specification's connection block.
const (
	ConnectionTCP   = "TCP"
	ConnectionRTU   = "RTU"
	ConnectionASCII = "ASCII"
)

// ConnectionConfig is the transport default declared at the top of a
// specification. At most one instance exists per loaded specification.
type ConnectionConfig struct {
	connType  string
	host      string
	port      int
	timeout   time.Duration
	reconnect bool
	portName  string
	baudRate  int
	dataBits  int
	stopBits  int
	parity    string
}

func (c ConnectionConfig) Type() string           { return c.connType }
func (c ConnectionConfig) Host() string           { return c.host }
func (c ConnectionConfig) Port() int              { return c.port }
func (c ConnectionConfig) Timeout() time.Duration { return c.timeout }
func (c ConnectionConfig) Reconnect() bool        { return c.reconnect }
func (c ConnectionConfig) PortName() string       { return c.portName }
func (c ConnectionConfig) BaudRate() int          { return c.baudRate }
func (c ConnectionConfig) DataBits() int          { return c.dataBits }
func (c ConnectionConfig) StopBits() int          { return c.stopBits }
func (c ConnectionConfig) Parity() string         { return c.parity }

func (c ConnectionConfig) IsTCP() bool {
	return strings.EqualFold(c.connType, ConnectionTCP)
}

// Address returns the host:port dial target for TCP configs.
func (c ConnectionConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

func (c ConnectionConfig) String() string {
	if c.IsTCP() {
		return fmt.Sprintf("ConnectionConfig{type=%s, address=%s, timeout=%s}", c.connType, c.Address(), c.timeout)
	}
	return fmt.Sprintf("ConnectionConfig{type=%s, port=%s, baud=%d}", c.connType, c.portName, c.baudRate)
}

type ConnectionConfigBuilder struct {
	cfg ConnectionConfig
}

// NewConnectionConfig starts a builder with the usual Modbus defaults:
// TCP to port 502, 3s timeout, and 9600 8N1 for serial.
func NewConnectionConfig() *ConnectionConfigBuilder {
	return &ConnectionConfigBuilder{cfg: ConnectionConfig{
		connType: ConnectionTCP,
		port:     502,
		timeout:  3 * time.Second,
		baudRate: 9600,
		dataBits: 8,
		stopBits: 1,
		parity:   "N",
	}}
}

func (b *ConnectionConfigBuilder) Type(t string) *ConnectionConfigBuilder {
	if strings.TrimSpace(t) != "" {
		b.cfg.connType = strings.ToUpper(strings.TrimSpace(t))
	}
	return b
}

func (b *ConnectionConfigBuilder) Host(host string) *ConnectionConfigBuilder {
	b.cfg.host = host
	return b
}

func (b *ConnectionConfigBuilder) Port(port int) *ConnectionConfigBuilder {
	b.cfg.port = port
	return b
}

func (b *ConnectionConfigBuilder) Timeout(d time.Duration) *ConnectionConfigBuilder {
	b.cfg.timeout = d
	return b
}

func (b *ConnectionConfigBuilder) Reconnect(reconnect bool) *ConnectionConfigBuilder {
	b.cfg.reconnect = reconnect
	return b
}

func (b *ConnectionConfigBuilder) PortName(name string) *ConnectionConfigBuilder {
	b.cfg.portName = name
	return b
}

func (b *ConnectionConfigBuilder) BaudRate(baud int) *ConnectionConfigBuilder {
	b.cfg.baudRate = baud
	return b
}

func (b *ConnectionConfigBuilder) DataBits(bits int) *ConnectionConfigBuilder {
	b.cfg.dataBits = bits
	return b
}

func (b *ConnectionConfigBuilder) StopBits(bits int) *ConnectionConfigBuilder {
	b.cfg.stopBits = bits
	return b
}

func (b *ConnectionConfigBuilder) Parity(parity string) *ConnectionConfigBuilder {
	b.cfg.parity = parity
	return b
}

func (b *ConnectionConfigBuilder) Build() (ConnectionConfig, error) {
	switch b.cfg.connType {
	case ConnectionTCP, ConnectionRTU, ConnectionASCII:
	default:
		return ConnectionConfig{}, fmt.Errorf("unknown connection type %q", b.cfg.connType)
	}
	if b.cfg.port < 0 || b.cfg.port > 65535 {
		return ConnectionConfig{}, fmt.Errorf("port %d out of range", b.cfg.port)
	}
	if b.cfg.timeout < 0 {
		return ConnectionConfig{}, fmt.Errorf("timeout must not be negative")
	}
	if !b.cfg.IsTCP() && strings.TrimSpace(b.cfg.portName) == "" {
		return ConnectionConfig{}, fmt.Errorf("serial connection requires a port name")
	}
	return b.cfg, nil
}
