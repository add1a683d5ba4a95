package parser

import "encoding/xml"

// Wire structs for the specification XML. Numeric attributes stay strings
// here so parsing failures can name the field and offending value.

type xmlDocument struct {
	XMLName       xml.Name          `xml:"ModbusSpec"`
	Connection    *xmlConnection    `xml:"Connection"`
	FunctionCodes []xmlFunctionCode `xml:"FunctionCodes>FunctionCode"`
	Devices       []xmlDevice       `xml:"RegisterMap>Device"`
}

type xmlConnection struct {
	Type      string `xml:"type,attr"`
	Host      string `xml:"Host"`
	Port      string `xml:"Port"`
	Timeout   string `xml:"Timeout"`
	Reconnect string `xml:"Reconnect"`
	PortName  string `xml:"PortName"`
	BaudRate  string `xml:"BaudRate"`
	DataBits  string `xml:"DataBits"`
	StopBits  string `xml:"StopBits"`
	Parity    string `xml:"Parity"`
}

type xmlFunctionCode struct {
	Code        string `xml:"code,attr"`
	Name        string `xml:"name,attr"`
	Description string `xml:"Description"`
}

type xmlDevice struct {
	ID               string        `xml:"id,attr"`
	UnitID           string        `xml:"unitId,attr"`
	Accessors        []xmlAccessor `xml:"Accessors>Accessor"`
	HoldingRegisters []xmlRegister `xml:"HoldingRegisters>Register"`
	InputRegisters   []xmlRegister `xml:"InputRegisters>Register"`
	Coils            []xmlRegister `xml:"Coils>Register"`
	DiscreteInputs   []xmlRegister `xml:"DiscreteInputs>Register"`
}

type xmlAccessor struct {
	Name         string `xml:"name,attr"`
	Function     string `xml:"Function"`
	DataClass    string `xml:"DataClass"`
	AddressRange string `xml:"AddressRange"`
}

type xmlRegister struct {
	Name     string `xml:"name,attr"`
	Address  string `xml:"address,attr"`
	DataType string `xml:"DataType"`
	Access   string `xml:"Access"`
}
