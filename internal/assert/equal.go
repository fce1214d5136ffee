package assert

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"reflect"
	"strconv"
	"strings"
)

// Truthy reports whether v counts as true for Assert.
//
// Untyped nil, nil pointers, maps, slices, channels, funcs and interfaces,
// false, numeric zero, NaN and the empty string are falsy. Every other value,
// including an empty but non-nil slice or map, is truthy.
func Truthy(v any) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Complex64, reflect.Complex128:
		c := rv.Complex()
		return c != 0 && !cmplx.IsNaN(c)
	case reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return !rv.IsNil()
	}
	return true
}

// StrictEqual reports whether a and b have the same dynamic type and value.
//
// Pointers, channels and funcs compare by identity and NaN is strictly equal
// to a NaN of the same type, at any depth, so that every value equals itself.
// Arrays, structs, slices, maps and interfaces compare element by element.
func StrictEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	return strictEqualValue(va, vb)
}

// strictEqualValue compares two values of the same type. It reads fields
// through the typed accessors, never Interface, so unexported struct fields
// are compared too.
func strictEqualValue(va, vb reflect.Value) bool {
	switch va.Kind() {
	case reflect.Bool:
		return va.Bool() == vb.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return va.Int() == vb.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return va.Uint() == vb.Uint()
	case reflect.String:
		return va.String() == vb.String()
	case reflect.Float32, reflect.Float64:
		x, y := va.Float(), vb.Float()
		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	case reflect.Complex64, reflect.Complex128:
		x, y := va.Complex(), vb.Complex()
		return x == y || (cmplx.IsNaN(x) && cmplx.IsNaN(y))
	case reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Array:
		for i := 0; i < va.Len(); i++ {
			if !strictEqualValue(va.Index(i), vb.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < va.NumField(); i++ {
			if !strictEqualValue(va.Field(i), vb.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Slice:
		if va.IsNil() != vb.IsNil() || va.Len() != vb.Len() {
			return false
		}
		if va.Pointer() == vb.Pointer() {
			return true
		}
		for i := 0; i < va.Len(); i++ {
			if !strictEqualValue(va.Index(i), vb.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Map:
		if va.IsNil() != vb.IsNil() || va.Len() != vb.Len() {
			return false
		}
		if va.Pointer() == vb.Pointer() {
			return true
		}
		iter := va.MapRange()
		for iter.Next() {
			other := vb.MapIndex(iter.Key())
			if !other.IsValid() || !strictEqualValue(iter.Value(), other) {
				return false
			}
		}
		return true
	case reflect.Interface:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		ea, eb := va.Elem(), vb.Elem()
		if ea.Type() != eb.Type() {
			return false
		}
		return strictEqualValue(ea, eb)
	}
	return false
}

// LooseEqual reports whether a and b are equal after coercion.
//
// The rules, applied in order:
//   - strictly equal values are loosely equal
//   - nil-ish values (untyped nil, nil pointers, maps, slices, ...) equal each other and nothing else
//   - numbers of any Go numeric kind compare by numeric value
//   - a number and a string compare after parsing the trimmed string as a number;
//     the empty string is 0 and 0x, 0o and 0b prefixes are honoured
//   - booleans count as 1 and 0 against numbers and strings
//   - two strings compare exactly; a fmt.Stringer or error that is not itself a
//     primitive compares through its text
//
// Any other combination is unequal.
func LooseEqual(a, b any) bool {
	if StrictEqual(a, b) {
		return true
	}

	na, nb := isNil(a), isNil(b)
	if na || nb {
		return na && nb
	}

	x, ok := toPrimitive(a)
	if !ok {
		return false
	}
	y, ok := toPrimitive(b)
	if !ok {
		return false
	}
	return x.looseEqual(y)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}

type primitiveKind int

const (
	primNumber primitiveKind = iota
	primString
	primBool
)

type primitive struct {
	kind primitiveKind
	num  number
	str  string
	b    bool
}

type numberKind int

const (
	numFloat numberKind = iota
	numInt
	numUint
)

type number struct {
	kind numberKind
	f    float64
	i    int64
	u    uint64
}

func toPrimitive(v any) (primitive, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return primitive{kind: primBool, b: rv.Bool()}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return primitive{kind: primNumber, num: number{kind: numInt, i: rv.Int()}}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return primitive{kind: primNumber, num: number{kind: numUint, u: rv.Uint()}}, true
	case reflect.Float32, reflect.Float64:
		return primitive{kind: primNumber, num: number{kind: numFloat, f: rv.Float()}}, true
	case reflect.String:
		return primitive{kind: primString, str: rv.String()}, true
	}

	switch s := v.(type) {
	case error:
		return primitive{kind: primString, str: s.Error()}, true
	case fmt.Stringer:
		return primitive{kind: primString, str: s.String()}, true
	}
	return primitive{}, false
}

func (p primitive) looseEqual(q primitive) bool {
	if p.kind == primString && q.kind == primString {
		return p.str == q.str
	}
	return p.toNumber().equal(q.toNumber())
}

func (p primitive) toNumber() number {
	switch p.kind {
	case primBool:
		if p.b {
			return number{kind: numInt, i: 1}
		}
		return number{kind: numInt}
	case primString:
		return parseNumber(p.str)
	}
	return p.num
}

// parseNumber converts s the way a numeric comparison would read it.
// Unparseable input yields NaN, which equals nothing.
func parseNumber(s string) number {
	s = strings.TrimSpace(s)
	if s == "" {
		return number{kind: numInt}
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return number{kind: numInt, i: i}
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			if u, err := strconv.ParseUint(s[2:], base, 64); err == nil {
				return number{kind: numUint, u: u}
			}
			return number{kind: numFloat, f: math.NaN()}
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err == nil || errors.Is(err, strconv.ErrRange) {
		return number{kind: numFloat, f: f}
	}
	return number{kind: numFloat, f: math.NaN()}
}

func (n number) equal(m number) bool {
	switch {
	case n.kind == numInt && m.kind == numInt:
		return n.i == m.i
	case n.kind == numUint && m.kind == numUint:
		return n.u == m.u
	case n.kind == numInt && m.kind == numUint:
		return n.i >= 0 && uint64(n.i) == m.u
	case n.kind == numUint && m.kind == numInt:
		return m.i >= 0 && uint64(m.i) == n.u
	}
	return n.float() == m.float()
}

func (n number) float() float64 {
	switch n.kind {
	case numInt:
		return float64(n.i)
	case numUint:
		return float64(n.u)
	}
	return n.f
}
