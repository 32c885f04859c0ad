package common

// Product tags
const (
	TagExamples = "examples"
)

// Attributes of the vessel detection tables
const (
	AttrDate          = "DATE"
	AttrSourceImageID = "SOURCE_IMG_ID"
	AttrConfidence    = "CONFIDENCE"
)

// Events
const (
	EventKindProduct = "product"
	EventKindTable   = "table"

	EventCreated = "created"
	EventDeleted = "deleted"
)

// DataType of a band
type DataType string

// Supported data types
const (
	DataTypeByte    DataType = "Byte"
	DataTypeUInt16  DataType = "UInt16"
	DataTypeInt16   DataType = "Int16"
	DataTypeUInt32  DataType = "UInt32"
	DataTypeInt32   DataType = "Int32"
	DataTypeFloat32 DataType = "Float32"
	DataTypeFloat64 DataType = "Float64"
)

// FieldType of a table attribute
type FieldType string

// Supported field types
const (
	FieldString   FieldType = "str"
	FieldInt      FieldType = "int"
	FieldFloat    FieldType = "float"
	FieldDateTime FieldType = "datetime"
)

// GeometryType of a table
type GeometryType string

// Supported geometry types
const (
	GeometryPolygon      GeometryType = "Polygon"
	GeometryMultiPolygon GeometryType = "MultiPolygon"
)
