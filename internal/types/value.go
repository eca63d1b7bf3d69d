// Package types contains shared types used across multiple packages to avoid import cycles.
package types

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Kind identifies the scalar category of a source value.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindTime
)

// Value is a tagged scalar as reported by the source database.
// Source schemas are unknown until runtime, so every cell is one of
// null, text, number, or timestamp.
type Value struct {
	kind Kind
	text string
	num  float64
	ts   time.Time
}

// Null returns the null Value. The zero Value is also null.
func Null() Value {
	return Value{kind: KindNull}
}

// Text returns a text Value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Timestamp returns a time Value.
func Timestamp(t time.Time) Value {
	return Value{kind: KindTime, ts: t}
}

// FromAny coerces a value scanned from database/sql into a Value.
// Unrecognized types fall back to their fmt rendering as text.
func FromAny(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case string:
		return Text(x)
	case []byte:
		return Text(string(x))
	case bool:
		if x {
			return Number(1)
		}
		return Number(0)
	case int64:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case time.Time:
		return Timestamp(x)
	case sql.NullString:
		if !x.Valid {
			return Null()
		}
		return Text(x.String)
	default:
		return Text(fmt.Sprint(x))
	}
}

// Kind returns the scalar category of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// String renders the value as destination text. Null renders as the empty
// string; use SQLValue when writing to the destination so null stays NULL
// instead of becoming the literal text.
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTime:
		return v.ts.UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// SQLValue returns the driver-level value for the destination: nil for null,
// the text rendering otherwise. All destination columns are text-typed.
func (v Value) SQLValue() interface{} {
	if v.kind == KindNull {
		return nil
	}
	return v.String()
}

// Equal compares two values by kind and rendered form. There is no type
// coercion: Number(1) and Text("1") are not equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	return v.String() == other.String()
}
