package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Modbus function code numbers for the eight standard operations.
const (
	FuncReadCoils              = 1
	FuncReadDiscreteInputs     = 2
	FuncReadHoldingRegisters   = 3
	FuncReadInputRegisters     = 4
	FuncWriteSingleCoil        = 5
	FuncWriteSingleRegister    = 6
	FuncWriteMultipleCoils     = 15
	FuncWriteMultipleRegisters = 16
)

// FunctionCode describes a Modbus function by its numeric code and name.
// Identity is the code.
type FunctionCode struct {
	Code        string
	Name        string
	Description string
}

func NewFunctionCode(code, name, description string) (FunctionCode, error) {
	if strings.TrimSpace(code) == "" {
		return FunctionCode{}, fmt.Errorf("function code must not be empty")
	}
	if strings.TrimSpace(name) == "" {
		return FunctionCode{}, fmt.Errorf("function name must not be empty")
	}
	if _, err := strconv.Atoi(code); err != nil {
		return FunctionCode{}, fmt.Errorf("function code %q is not numeric: %w", code, err)
	}
	return FunctionCode{Code: code, Name: name, Description: description}, nil
}

// Number returns the numeric value of the code. The constructor guarantees
// the code parses.
func (fc FunctionCode) Number() int {
	n, _ := strconv.Atoi(fc.Code)
	return n
}

// IsRead reports whether the code is one of the four read functions.
func (fc FunctionCode) IsRead() bool {
	switch fc.Number() {
	case FuncReadCoils, FuncReadDiscreteInputs, FuncReadHoldingRegisters, FuncReadInputRegisters:
		return true
	}
	return false
}

// IsWrite reports whether the code is one of the four write functions.
func (fc FunctionCode) IsWrite() bool {
	switch fc.Number() {
	case FuncWriteSingleCoil, FuncWriteSingleRegister, FuncWriteMultipleCoils, FuncWriteMultipleRegisters:
		return true
	}
	return false
}

func (fc FunctionCode) String() string {
	return fmt.Sprintf("FunctionCode{code=%s, name=%s}", fc.Code, fc.Name)
}

// DefaultFunctionCodes returns the canonical set covering the eight standard
// operations. Specifications that declare no function codes get these.
func DefaultFunctionCodes() []FunctionCode {
	return []FunctionCode{
		{Code: "1", Name: "ReadCoils", Description: "Read coil status (FC1)"},
		{Code: "2", Name: "ReadDiscreteInputs", Description: "Read discrete input status (FC2)"},
		{Code: "3", Name: "ReadHoldingRegisters", Description: "Read holding registers (FC3)"},
		{Code: "4", Name: "ReadInputRegisters", Description: "Read input registers (FC4)"},
		{Code: "5", Name: "WriteSingleCoil", Description: "Write single coil (FC5)"},
		{Code: "6", Name: "WriteSingleRegister", Description: "Write single register (FC6)"},
		{Code: "15", Name: "WriteMultipleCoils", Description: "Write multiple coils (FC15)"},
		{Code: "16", Name: "WriteMultipleRegisters", Description: "Write multiple registers (FC16)"},
	}
}
