package inventory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindUndefined Kind = iota // field not present in the source row
	KindNull                  // present but explicitly empty
	KindText
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "undefined"
	}
}

// Value is a single spreadsheet cell as read from the source, kept
// uninterpreted until a calculation coerces it. The zero Value is undefined.
type Value struct {
	kind Kind
	text string
	num  float64
	b    bool
}

func Null() Value             { return Value{kind: KindNull} }
func Text(s string) Value     { return Value{kind: KindText, text: s} }
func Number(f float64) Value  { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value       { return Value{kind: KindBool, b: b} }
func (v Value) Kind() Kind    { return v.kind }
func (v Value) Defined() bool { return v.kind != KindUndefined }

// IsZero reports whether v is undefined. It lets `omitzero` drop absent fields.
func (v Value) IsZero() bool { return v.kind == KindUndefined }

// AsText returns the raw text and whether v holds text.
func (v Value) AsText() (string, bool) { return v.text, v.kind == KindText }

// AsNumber returns the raw number and whether v holds a number.
func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

// AsBool returns the raw boolean and whether v holds a boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// Equal compares kind and payload. NaN numbers are equal to each other.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

func (v Value) String() string {
	return ToText(v, "")
}

func (v Value) GoString() string {
	return fmt.Sprintf("inventory.Value{%s:%q}", v.kind, v.String())
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Null()
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Text(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '{', '[':
		// Nested structures are not cell values; keep their JSON text so the
		// row still loads and coercion falls back to defaults.
		*v = Text(string(data))
	default:
		// Out of range numbers keep their ±Inf; anything else unparsable
		// stays as text so a single cell never rejects the row.
		f, err := strconv.ParseFloat(string(data), 64)
		switch {
		case err == nil, errors.Is(err, strconv.ErrRange):
			*v = Number(f)
		default:
			*v = Text(string(data))
		}
	}
	return nil
}
