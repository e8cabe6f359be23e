package domain

import (
	"fmt"
	"strconv"
)

// PropertyKind is the storage format of an engine property value.
type PropertyKind int

const (
	// PropertyKindNone carries no value; used to observe change-only properties.
	PropertyKindNone PropertyKind = iota
	PropertyKindString
	PropertyKindInt
	PropertyKindDouble
	PropertyKindFlag
)

// String returns a human-readable representation of the kind.
func (k PropertyKind) String() string {
	switch k {
	case PropertyKindNone:
		return "none"
	case PropertyKindString:
		return "string"
	case PropertyKindInt:
		return "int"
	case PropertyKindDouble:
		return "double"
	case PropertyKindFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// IsReadable reports whether values of this kind can be read back.
func (k PropertyKind) IsReadable() bool {
	return k >= PropertyKindString && k <= PropertyKindFlag
}

// PropertyValue is a tagged union over the engine's property formats.
// The zero value is an empty PropertyKindNone value.
type PropertyValue struct {
	kind PropertyKind
	str  string
	num  int64
	dbl  float64
	flag bool
}

// StringValue wraps a string property value.
func StringValue(v string) PropertyValue {
	return PropertyValue{kind: PropertyKindString, str: v}
}

// IntValue wraps an integer property value.
func IntValue(v int64) PropertyValue {
	return PropertyValue{kind: PropertyKindInt, num: v}
}

// DoubleValue wraps a floating point property value.
func DoubleValue(v float64) PropertyValue {
	return PropertyValue{kind: PropertyKindDouble, dbl: v}
}

// FlagValue wraps a boolean property value.
func FlagValue(v bool) PropertyValue {
	return PropertyValue{kind: PropertyKindFlag, flag: v}
}

// Kind returns the stored kind.
func (v PropertyValue) Kind() PropertyKind {
	return v.kind
}

// AsString returns the stored string or a PropertyKindError.
func (v PropertyValue) AsString() (string, error) {
	if v.kind != PropertyKindString {
		return "", &PropertyKindError{Want: PropertyKindString, Got: v.kind}
	}
	return v.str, nil
}

// AsInt returns the stored integer or a PropertyKindError.
func (v PropertyValue) AsInt() (int64, error) {
	if v.kind != PropertyKindInt {
		return 0, &PropertyKindError{Want: PropertyKindInt, Got: v.kind}
	}
	return v.num, nil
}

// AsDouble returns the stored float or a PropertyKindError.
func (v PropertyValue) AsDouble() (float64, error) {
	if v.kind != PropertyKindDouble {
		return 0, &PropertyKindError{Want: PropertyKindDouble, Got: v.kind}
	}
	return v.dbl, nil
}

// AsFlag returns the stored boolean or a PropertyKindError.
func (v PropertyValue) AsFlag() (bool, error) {
	if v.kind != PropertyKindFlag {
		return false, &PropertyKindError{Want: PropertyKindFlag, Got: v.kind}
	}
	return v.flag, nil
}

// Interface returns the value as a plain Go value, suitable for JSON encoding.
func (v PropertyValue) Interface() any {
	switch v.kind {
	case PropertyKindString:
		return v.str
	case PropertyKindInt:
		return v.num
	case PropertyKindDouble:
		return v.dbl
	case PropertyKindFlag:
		return v.flag
	default:
		return nil
	}
}

// String formats the value the way the engine prints it.
func (v PropertyValue) String() string {
	switch v.kind {
	case PropertyKindString:
		return v.str
	case PropertyKindInt:
		return strconv.FormatInt(v.num, 10)
	case PropertyKindDouble:
		return strconv.FormatFloat(v.dbl, 'f', -1, 64)
	case PropertyKindFlag:
		if v.flag {
			return "yes"
		}
		return "no"
	default:
		return ""
	}
}

// ValueOf converts a Go runtime value into a PropertyValue.
// Unsupported types return a PropertyTypeError.
func ValueOf(value any) (PropertyValue, error) {
	switch v := value.(type) {
	case PropertyValue:
		return v, nil
	case string:
		return StringValue(v), nil
	case int:
		return IntValue(int64(v)), nil
	case int32:
		return IntValue(int64(v)), nil
	case int64:
		return IntValue(v), nil
	case float32:
		return DoubleValue(float64(v)), nil
	case float64:
		return DoubleValue(v), nil
	case bool:
		return FlagValue(v), nil
	default:
		return PropertyValue{}, &PropertyTypeError{Type: fmt.Sprintf("%T", value)}
	}
}
