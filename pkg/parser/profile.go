package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/anode/modbuspec/pkg/model"
)

//go:embed schema/modbus-profile-v1.json
var profileSchemaJSON string

// ProfileParser reads the JSON device-profile flavor of the specification.
// The document is validated against an embedded JSON schema before it is
// unmarshalled, so structural errors surface with schema paths instead of
// half-populated models.
type ProfileParser struct {
	schema *jsonschema.Schema
}

func NewProfileParser() (*ProfileParser, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("modbus-profile-v1.json",
		strings.NewReader(profileSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	schema, err := compiler.Compile("modbus-profile-v1.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &ProfileParser{schema: schema}, nil
}

func (p *ProfileParser) ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Msg: fmt.Sprintf("read %s", path), Err: err}
	}
	return p.Parse(data)
}

func (p *ProfileParser) Parse(data []byte) (*Result, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Msg: "profile rejected", Err: &MalformedDocumentError{Reason: "invalid JSON", Err: err}}
	}
	if err := p.schema.Validate(raw); err != nil {
		return nil, &ParseError{Msg: "profile rejected", Err: &MalformedDocumentError{Reason: "schema validation failed", Err: err}}
	}

	var doc jsonProfile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Msg: "profile rejected", Err: &MalformedDocumentError{Reason: "invalid JSON", Err: err}}
	}

	result := &Result{}

	if doc.Connection != nil {
		conn, err := profileConnection(doc.Connection)
		if err != nil {
			return nil, &ParseError{Msg: "connection block", Err: err}
		}
		result.Connection = conn
	}

	for _, fc := range doc.FunctionCodes {
		code, err := model.NewFunctionCode(fc.Code, fc.Name, fc.Description)
		if err != nil {
			return nil, &ParseError{Msg: "function codes",
				Err: &InvalidFieldError{Field: "function_codes/code", Value: fc.Code, Err: err}}
		}
		result.FunctionCodes = append(result.FunctionCodes, code)
	}

	for _, dev := range doc.Devices {
		device, err := profileDevice(dev)
		if err != nil {
			return nil, &ParseError{Msg: "devices", Err: err}
		}
		result.Devices = append(result.Devices, device)
	}

	return result, nil
}

func profileConnection(c *jsonConnection) (*model.ConnectionConfig, error) {
	b := model.NewConnectionConfig().Type(c.Type)
	if c.Host != "" {
		b.Host(c.Host)
	}
	if c.Port != 0 {
		b.Port(c.Port)
	}
	if c.TimeoutMs != 0 {
		b.Timeout(time.Duration(c.TimeoutMs) * time.Millisecond)
	}
	b.Reconnect(c.Reconnect)
	if c.PortName != "" {
		b.PortName(c.PortName)
	}
	if c.BaudRate != 0 {
		b.BaudRate(c.BaudRate)
	}
	if c.DataBits != 0 {
		b.DataBits(c.DataBits)
	}
	if c.StopBits != 0 {
		b.StopBits(c.StopBits)
	}
	if c.Parity != "" {
		b.Parity(c.Parity)
	}
	cfg, err := b.Build()
	if err != nil {
		return nil, &InvalidFieldError{Field: "connection", Value: c.Type, Err: err}
	}
	return &cfg, nil
}

func profileDevice(d jsonDevice) (*model.Device, error) {
	b := model.NewDevice().ID(d.ID).UnitID(d.UnitID)

	seen := make(map[string]struct{}, len(d.Accessors))
	for _, a := range d.Accessors {
		accessor, err := model.NewAccessor().
			Name(strings.TrimSpace(a.Name)).
			Function(a.Function).
			DataClass(a.DataClass).
			AddressRange(a.AddressRange).
			Build()
		if err != nil {
			return nil, &InvalidFieldError{
				Field: fmt.Sprintf("devices/%s/accessors/%s/address_range", d.ID, a.Name),
				Value: a.AddressRange,
				Err:   err,
			}
		}
		if _, dup := seen[accessor.Name()]; dup {
			return nil, &DuplicateAccessorError{Device: d.ID, Name: accessor.Name()}
		}
		seen[accessor.Name()] = struct{}{}
		b.AddAccessor(accessor)
	}

	for _, group := range []struct {
		regs []jsonRegister
		add  func(model.Register) *model.DeviceBuilder
	}{
		{d.HoldingRegisters, b.AddHoldingRegister},
		{d.InputRegisters, b.AddInputRegister},
		{d.Coils, b.AddCoil},
		{d.DiscreteInputs, b.AddDiscreteInput},
	} {
		for _, r := range group.regs {
			reg, err := model.NewRegister(r.Name, uint16(r.Address), r.DataType, r.Access)
			if err != nil {
				return nil, &InvalidFieldError{
					Field: fmt.Sprintf("devices/%s/registers/%s", d.ID, r.Name),
					Value: r.Name,
					Err:   err,
				}
			}
			group.add(reg)
		}
	}

	device, err := b.Build()
	if err != nil {
		return nil, &InvalidFieldError{Field: "devices/" + d.ID, Value: d.ID, Err: err}
	}
	return device, nil
}

type jsonProfile struct {
	Connection    *jsonConnection    `json:"connection,omitempty"`
	FunctionCodes []jsonFunctionCode `json:"function_codes,omitempty"`
	Devices       []jsonDevice       `json:"devices"`
}

type jsonConnection struct {
	Type      string `json:"type,omitempty"`
	Host      string `json:"host,omitempty"`
	Port      int    `json:"port,omitempty"`
	TimeoutMs int    `json:"timeout_ms,omitempty"`
	Reconnect bool   `json:"reconnect,omitempty"`
	PortName  string `json:"port_name,omitempty"`
	BaudRate  int    `json:"baud_rate,omitempty"`
	DataBits  int    `json:"data_bits,omitempty"`
	StopBits  int    `json:"stop_bits,omitempty"`
	Parity    string `json:"parity,omitempty"`
}

type jsonFunctionCode struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type jsonDevice struct {
	ID               string         `json:"id"`
	UnitID           int            `json:"unit_id"`
	Accessors        []jsonAccessor `json:"accessors,omitempty"`
	HoldingRegisters []jsonRegister `json:"holding_registers,omitempty"`
	InputRegisters   []jsonRegister `json:"input_registers,omitempty"`
	Coils            []jsonRegister `json:"coils,omitempty"`
	DiscreteInputs   []jsonRegister `json:"discrete_inputs,omitempty"`
}

type jsonAccessor struct {
	Name         string `json:"name"`
	Function     string `json:"function"`
	DataClass    string `json:"data_class"`
	AddressRange string `json:"address_range"`
}

type jsonRegister struct {
	Name     string `json:"name"`
	Address  int    `json:"address"`
	DataType string `json:"data_type,omitempty"`
	Access   string `json:"access,omitempty"`
}
