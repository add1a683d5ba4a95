package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/anode/modbuspec/pkg/model"
)

// Result is the outcome of parsing a specification document.
// Connection is nil when the document declares no connection block.
type Result struct {
	Connection    *model.ConnectionConfig
	FunctionCodes []model.FunctionCode
	Devices       []*model.Device
}

// Parser converts a specification XML document into domain model values.
// All structural validation happens here, at load time; nothing is deferred
// to call time. The input is treated as untrusted: doctype declarations and
// entity definitions are rejected outright.
type Parser struct{}

func New() *Parser {
	return &Parser{}
}

func (p *Parser) ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("read %s", path), Err: err}
	}
	return p.Parse(data)
}

func (p *Parser) Parse(data []byte) (*Result, error) {
	if err := rejectUnsafeConstructs(data); err != nil {
		return nil, &ParseError{Msg: "document rejected", Err: err}
	}

	var doc xmlDocument
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	if err := dec.Decode(&doc); err != nil {
		return nil, &ParseError{Msg: "document rejected", Err: &MalformedDocumentError{Reason: "not well-formed", Err: err}}
	}

	result := &Result{}

	conn, err := parseConnection(doc.Connection)
	if err != nil {
		return nil, &ParseError{Msg: "connection block", Err: err}
	}
	result.Connection = conn

	for _, fc := range doc.FunctionCodes {
		code, err := parseFunctionCode(fc)
		if err != nil {
			return nil, &ParseError{Msg: "function codes", Err: err}
		}
		result.FunctionCodes = append(result.FunctionCodes, code)
	}

	for _, dev := range doc.Devices {
		device, err := parseDevice(dev)
		if err != nil {
			return nil, &ParseError{Msg: "register map", Err: err}
		}
		result.Devices = append(result.Devices, device)
	}

	return result, nil
}

// rejectUnsafeConstructs scans the raw token stream before unmarshalling and
// refuses doctype declarations. encoding/xml never resolves external
// entities or XInclude; undeclared internal entities fail the strict decode.
func rejectUnsafeConstructs(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &MalformedDocumentError{Reason: "not well-formed", Err: err}
		}
		if d, ok := tok.(xml.Directive); ok {
			directive := strings.ToUpper(strings.TrimSpace(string(d)))
			if strings.HasPrefix(directive, "DOCTYPE") {
				return &MalformedDocumentError{Reason: "doctype declarations are not allowed"}
			}
		}
	}
}

func parseConnection(c *xmlConnection) (*model.ConnectionConfig, error) {
	if c == nil {
		return nil, nil
	}
	b := model.NewConnectionConfig().Type(c.Type)
	if c.Host != "" {
		b.Host(c.Host)
	}
	if c.Port != "" {
		port, err := cast.ToIntE(c.Port)
		if err != nil {
			return nil, &InvalidFieldError{Field: "Connection/Port", Value: c.Port, Err: err}
		}
		b.Port(port)
	}
	if c.Timeout != "" {
		timeoutMs, err := cast.ToIntE(c.Timeout)
		if err != nil {
			return nil, &InvalidFieldError{Field: "Connection/Timeout", Value: c.Timeout, Err: err}
		}
		b.Timeout(time.Duration(timeoutMs) * time.Millisecond)
	}
	if c.Reconnect != "" {
		reconnect, err := cast.ToBoolE(c.Reconnect)
		if err != nil {
			return nil, &InvalidFieldError{Field: "Connection/Reconnect", Value: c.Reconnect, Err: err}
		}
		b.Reconnect(reconnect)
	}
	if c.PortName != "" {
		b.PortName(c.PortName)
	}
	if c.BaudRate != "" {
		baud, err := cast.ToIntE(c.BaudRate)
		if err != nil {
			return nil, &InvalidFieldError{Field: "Connection/BaudRate", Value: c.BaudRate, Err: err}
		}
		b.BaudRate(baud)
	}
	if c.DataBits != "" {
		bits, err := cast.ToIntE(c.DataBits)
		if err != nil {
			return nil, &InvalidFieldError{Field: "Connection/DataBits", Value: c.DataBits, Err: err}
		}
		b.DataBits(bits)
	}
	if c.StopBits != "" {
		bits, err := cast.ToIntE(c.StopBits)
		if err != nil {
			return nil, &InvalidFieldError{Field: "Connection/StopBits", Value: c.StopBits, Err: err}
		}
		b.StopBits(bits)
	}
	if c.Parity != "" {
		b.Parity(c.Parity)
	}
	cfg, err := b.Build()
	if err != nil {
		return nil, &InvalidFieldError{Field: "Connection", Value: c.Type, Err: err}
	}
	return &cfg, nil
}

func parseFunctionCode(fc xmlFunctionCode) (model.FunctionCode, error) {
	if strings.TrimSpace(fc.Code) == "" {
		return model.FunctionCode{}, &MissingFieldError{Element: "FunctionCode", Field: "code"}
	}
	if strings.TrimSpace(fc.Name) == "" {
		return model.FunctionCode{}, &MissingFieldError{Element: "FunctionCode " + fc.Code, Field: "name"}
	}
	code, err := model.NewFunctionCode(fc.Code, fc.Name, strings.TrimSpace(fc.Description))
	if err != nil {
		return model.FunctionCode{}, &InvalidFieldError{Field: "FunctionCode/code", Value: fc.Code, Err: err}
	}
	return code, nil
}

func parseDevice(d xmlDevice) (*model.Device, error) {
	if strings.TrimSpace(d.ID) == "" {
		return nil, &MissingFieldError{Element: "Device", Field: "id"}
	}
	unitID, err := cast.ToIntE(d.UnitID)
	if err != nil {
		return nil, &InvalidFieldError{Field: "Device " + d.ID + "/unitId", Value: d.UnitID, Err: err}
	}

	b := model.NewDevice().ID(d.ID).UnitID(unitID)

	seen := make(map[string]struct{}, len(d.Accessors))
	for _, a := range d.Accessors {
		accessor, err := parseAccessor(d.ID, a)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[accessor.Name()]; dup {
			return nil, &DuplicateAccessorError{Device: d.ID, Name: accessor.Name()}
		}
		seen[accessor.Name()] = struct{}{}
		b.AddAccessor(accessor)
	}

	for _, group := range []struct {
		regs []xmlRegister
		add  func(model.Register) *model.DeviceBuilder
	}{
		{d.HoldingRegisters, b.AddHoldingRegister},
		{d.InputRegisters, b.AddInputRegister},
		{d.Coils, b.AddCoil},
		{d.DiscreteInputs, b.AddDiscreteInput},
	} {
		for _, r := range group.regs {
			reg, err := parseRegister(d.ID, r)
			if err != nil {
				return nil, err
			}
			group.add(reg)
		}
	}

	device, err := b.Build()
	if err != nil {
		return nil, &InvalidFieldError{Field: "Device " + d.ID, Value: d.UnitID, Err: err}
	}
	return device, nil
}

func parseAccessor(deviceID string, a xmlAccessor) (model.Accessor, error) {
	element := fmt.Sprintf("Device %s/Accessor %s", deviceID, a.Name)
	if strings.TrimSpace(a.Name) == "" {
		return model.Accessor{}, &MissingFieldError{Element: "Device " + deviceID + "/Accessor", Field: "name"}
	}
	if strings.TrimSpace(a.Function) == "" {
		return model.Accessor{}, &MissingFieldError{Element: element, Field: "Function"}
	}
	if strings.TrimSpace(a.DataClass) == "" {
		return model.Accessor{}, &MissingFieldError{Element: element, Field: "DataClass"}
	}
	if strings.TrimSpace(a.AddressRange) == "" {
		return model.Accessor{}, &MissingFieldError{Element: element, Field: "AddressRange"}
	}
	accessor, err := model.NewAccessor().
		Name(strings.TrimSpace(a.Name)).
		Function(strings.TrimSpace(a.Function)).
		DataClass(strings.TrimSpace(a.DataClass)).
		AddressRange(a.AddressRange).
		Build()
	if err != nil {
		return model.Accessor{}, &InvalidFieldError{Field: element + "/AddressRange", Value: a.AddressRange, Err: err}
	}
	return accessor, nil
}

func parseRegister(deviceID string, r xmlRegister) (model.Register, error) {
	element := fmt.Sprintf("Device %s/Register %s", deviceID, r.Name)
	if strings.TrimSpace(r.Name) == "" {
		return model.Register{}, &MissingFieldError{Element: "Device " + deviceID + "/Register", Field: "name"}
	}
	address, err := cast.ToIntE(r.Address)
	if err != nil {
		return model.Register{}, &InvalidFieldError{Field: element + "/address", Value: r.Address, Err: err}
	}
	if address < 0 || address > 65535 {
		return model.Register{}, &InvalidFieldError{Field: element + "/address", Value: r.Address,
			Err: fmt.Errorf("address out of range (0-65535)")}
	}
	reg, err := model.NewRegister(r.Name, uint16(address), strings.TrimSpace(r.DataType), strings.TrimSpace(r.Access))
	if err != nil {
		return model.Register{}, &InvalidFieldError{Field: element, Value: r.Name, Err: err}
	}
	return reg, nil
}
