// Package pixel maps pixel types between the PostGIS raster wire format,
// the raster engine and little-endian binary pack codes.
package pixel

import (
	"errors"
	"fmt"
)

var ErrUnsupportedPixelType = errors.New("pgraster: unsupported pixel type")

// Type is a PostGIS raster band pixel type code (rt_pixtype).
type Type uint8

const (
	Type1BB   Type = 0
	Type2BUI  Type = 1
	Type4BUI  Type = 2
	Type8BSI  Type = 3
	Type8BUI  Type = 4
	Type16BSI Type = 5
	Type16BUI Type = 6
	Type32BSI Type = 7
	Type32BUI Type = 8
	Type32BF  Type = 10
	Type64BF  Type = 11
)

// EngineType is a raster engine data type, numbered like GDAL's GDALDataType.
type EngineType uint8

const (
	Unknown EngineType = iota
	Byte
	UInt16
	Int16
	UInt32
	Int32
	Float32
	Float64
	CInt16
	CInt32
	CFloat32
	CFloat64
)

// PackCode describes a fixed-width little-endian binary field.
// The values follow the Python struct format characters.
type PackCode byte

const (
	PackBool    PackCode = '?'
	PackInt8    PackCode = 'b'
	PackUint8   PackCode = 'B'
	PackInt16   PackCode = 'h'
	PackUint16  PackCode = 'H'
	PackInt32   PackCode = 'l'
	PackUint32  PackCode = 'L'
	PackFloat32 PackCode = 'f'
	PackFloat64 PackCode = 'd'
)

type wireInfo struct {
	name   string
	engine EngineType
	pack   PackCode
	bits   int
}

// Sub-byte types and 8BSI have no engine type of their own and are widened.
var wireTypes = map[Type]wireInfo{
	Type1BB:   {"1BB", Byte, PackBool, 1},
	Type2BUI:  {"2BUI", Byte, PackUint8, 2},
	Type4BUI:  {"4BUI", Byte, PackUint8, 4},
	Type8BSI:  {"8BSI", Int16, PackInt8, 8},
	Type8BUI:  {"8BUI", Byte, PackUint8, 8},
	Type16BSI: {"16BSI", Int16, PackInt16, 16},
	Type16BUI: {"16BUI", UInt16, PackUint16, 16},
	Type32BSI: {"32BSI", Int32, PackInt32, 32},
	Type32BUI: {"32BUI", UInt32, PackUint32, 32},
	Type32BF:  {"32BF", Float32, PackFloat32, 32},
	Type64BF:  {"64BF", Float64, PackFloat64, 64},
}

type engineInfo struct {
	name     string
	size     int
	wire     Type
	pack     PackCode
	native   bool
	unsigned bool
}

var engineTypes = map[EngineType]engineInfo{
	Unknown:  {name: "Unknown"},
	Byte:     {"Byte", 1, Type8BUI, PackUint8, true, true},
	UInt16:   {"UInt16", 2, Type16BUI, PackUint16, true, true},
	Int16:    {"Int16", 2, Type16BSI, PackInt16, true, false},
	UInt32:   {"UInt32", 4, Type32BUI, PackUint32, true, true},
	Int32:    {"Int32", 4, Type32BSI, PackInt32, true, false},
	Float32:  {"Float32", 4, Type32BF, PackFloat32, true, false},
	Float64:  {"Float64", 8, Type64BF, PackFloat64, true, false},
	CInt16:   {name: "CInt16", size: 4},
	CInt32:   {name: "CInt32", size: 8},
	CFloat32: {name: "CFloat32", size: 8},
	CFloat64: {name: "CFloat64", size: 16},
}

type packInfo struct {
	width  int
	signed bool
	float  bool
}

var packCodes = map[PackCode]packInfo{
	PackBool:    {1, false, false},
	PackInt8:    {1, true, false},
	PackUint8:   {1, false, false},
	PackInt16:   {2, true, false},
	PackUint16:  {2, false, false},
	PackInt32:   {4, true, false},
	PackUint32:  {4, false, false},
	PackFloat32: {4, true, true},
	PackFloat64: {8, true, true},
}

func (t Type) String() string {
	if info, ok := wireTypes[t]; ok {
		return info.name
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

func (t Type) Valid() bool {
	_, ok := wireTypes[t]
	return ok
}

// EngineType returns the engine type that holds samples of t.
func (t Type) EngineType() (EngineType, error) {
	info, ok := wireTypes[t]
	if !ok {
		return Unknown, fmt.Errorf("%w: wire code %d", ErrUnsupportedPixelType, uint8(t))
	}
	return info.engine, nil
}

// PackCode returns the binary layout of one sample of t on the wire.
func (t Type) PackCode() (PackCode, error) {
	info, ok := wireTypes[t]
	if !ok {
		return 0, fmt.Errorf("%w: wire code %d", ErrUnsupportedPixelType, uint8(t))
	}
	return info.pack, nil
}

// Width returns the size in bytes of one sample of t on the wire.
func (t Type) Width() (int, error) {
	code, err := t.PackCode()
	if err != nil {
		return 0, err
	}
	return code.Width(), nil
}

// Bits returns the number of significant bits in one sample of t, or 0 if t
// is not a known wire type. Sub-byte types still take a whole byte on the wire.
func (t Type) Bits() int {
	return wireTypes[t].bits
}

// ParseType looks up a wire type by its PostGIS name, e.g. "32BSI".
func ParseType(name string) (Type, error) {
	for t, info := range wireTypes {
		if info.name == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedPixelType, name)
}

func (e EngineType) String() string {
	if info, ok := engineTypes[e]; ok {
		return info.name
	}
	return fmt.Sprintf("EngineType(%d)", uint8(e))
}

// Native reports whether the engine can create rasters of type e.
func (e EngineType) Native() bool {
	return engineTypes[e].native
}

// Size returns the storage size of one sample of e in bytes, or 0 if e is unknown.
func (e EngineType) Size() int {
	return engineTypes[e].size
}

func (e EngineType) Unsigned() bool {
	return engineTypes[e].unsigned
}

// WireType returns the PostGIS type used to serialize samples of e.
func (e EngineType) WireType() (Type, error) {
	info, ok := engineTypes[e]
	if !ok || !info.native {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedPixelType, e)
	}
	return info.wire, nil
}

// PackCode returns the binary layout of one sample of e.
func (e EngineType) PackCode() (PackCode, error) {
	info, ok := engineTypes[e]
	if !ok || !info.native {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedPixelType, e)
	}
	return info.pack, nil
}

func (c PackCode) String() string {
	return string(rune(c))
}

func (c PackCode) Valid() bool {
	_, ok := packCodes[c]
	return ok
}

// Width returns the field width in bytes, or 0 for an unknown code.
func (c PackCode) Width() int {
	return packCodes[c].width
}

func (c PackCode) Signed() bool {
	return packCodes[c].signed
}

func (c PackCode) Float() bool {
	return packCodes[c].float
}
