package wql

import (
	"strconv"

	"github.com/webcortex/sitemap-engine/internal/compiler"
)

// ValueKind is the closed tag for a Row field's runtime type, mirroring
// §4.14's `Value ∈ Float|Integer|String|Bool|Null`.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueFloat
	ValueInteger
	ValueString
	ValueBool
)

// Value is one materialized row field.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
}

func (v Value) IsNull() bool { return v.Kind == ValueNull }

func nullValue() Value { return Value{Kind: ValueNull} }

// decodeValue turns schemaOrgType's fieldName at raw feature value v
// into a typed Value, reusing the compiler's own per-field display
// decoding (§4.9 step 6) so the executor never re-derives a field's
// decode rule.
func decodeValue(schemaOrgType, fieldName string, v float32, kind compiler.FieldTypeKind) Value {
	str, ok := compiler.DecodeFieldString(schemaOrgType, fieldName, v)
	if !ok {
		return nullValue()
	}
	switch kind {
	case compiler.TypeFloat:
		n, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nullValue()
		}
		return Value{Kind: ValueFloat, Num: n}
	case compiler.TypeInteger:
		n, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return nullValue()
		}
		return Value{Kind: ValueInteger, Num: n}
	case compiler.TypeBool:
		b, err := strconv.ParseBool(str)
		if err != nil {
			return nullValue()
		}
		n := 0.0
		if b {
			n = 1.0
		}
		return Value{Kind: ValueBool, Num: n, Str: str}
	default:
		return Value{Kind: ValueString, Str: str}
	}
}
