package predicate

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

type (
	// fieldInfo describes one addressable field of a record type.
	fieldInfo struct {
		Name     string
		Index    []int
		Type     reflect.Type
		Base     reflect.Type
		Optional bool
		Nilable  bool
	}

	fieldKey struct {
		record reflect.Type
		name   string
	}

	// ordering reports false when a and b are unordered, as with NaN.
	ordering func(a, b reflect.Value) (int, bool)
	equality func(a, b reflect.Value) bool
)

var (
	fieldCache sync.Map // fieldKey -> *fieldInfo
	timeType   = reflect.TypeFor[time.Time]()
)

// lookupField resolves name against the exported fields of record. The
// name matches the Go field name exactly, then case-insensitively, then as
// the snake_case spelling of a camelCase name, then as a json tag.
func lookupField(record reflect.Type, name string) (*fieldInfo, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: %q on a nil record type", ErrFieldNotFound, name)
	}

	key := fieldKey{record: record, name: name}
	if cached, ok := fieldCache.Load(key); ok {
		return cached.(*fieldInfo), nil
	}

	structType := record
	for structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	if structType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s has no fields (looking for %q)", ErrFieldNotFound, record, name)
	}

	sf, ok := findField(structType, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no field %q", ErrFieldNotFound, record, name)
	}

	info := newFieldInfo(sf)
	fieldCache.Store(key, info)

	return info, nil
}

func findField(typ reflect.Type, name string) (reflect.StructField, bool) {
	if name == "" {
		return reflect.StructField{}, false
	}

	if sf, ok := typ.FieldByName(name); ok && sf.IsExported() {
		return sf, true
	}

	fields := reflect.VisibleFields(typ)

	for _, matches := range []func(reflect.StructField) bool{
		func(sf reflect.StructField) bool { return strings.EqualFold(sf.Name, name) },
		func(sf reflect.StructField) bool { return snakeCaseMatch(name, sf.Name) },
		func(sf reflect.StructField) bool {
			tag, ok := sf.Tag.Lookup("json")
			if !ok || tag == "-" {
				return false
			}
			tagName, _, _ := strings.Cut(tag, ",")

			return tagName == name
		},
	} {
		for _, sf := range fields {
			if sf.Anonymous || !sf.IsExported() {
				continue
			}

			if matches(sf) {
				return sf, true
			}
		}
	}

	return reflect.StructField{}, false
}

// snakeCaseMatch reports whether a snake_case name spells the camelCase
// identifier ident, ignoring case: "created_at" matches "CreatedAt".
func snakeCaseMatch(name, ident string) bool {
	for name != "" {
		if ident == "" {
			return false
		}

		nc, nsize := utf8.DecodeRuneInString(name)
		name = name[nsize:]

		if nc == '_' {
			continue
		}

		ic, isize := utf8.DecodeRuneInString(ident)
		ident = ident[isize:]

		if unicode.ToLower(nc) != unicode.ToLower(ic) {
			return false
		}
	}

	return ident == ""
}

func newFieldInfo(sf reflect.StructField) *fieldInfo {
	info := &fieldInfo{
		Name:  sf.Name,
		Index: sf.Index,
		Type:  sf.Type,
		Base:  sf.Type,
	}

	if sf.Type.Kind() == reflect.Pointer {
		info.Optional = true
		info.Base = sf.Type.Elem()
	}

	info.Nilable = info.Optional || isNilableKind(info.Base.Kind())

	return info
}

// value extracts the field from a record. A nil record, a nil embedded
// pointer on the path or a nil optional field all yield the invalid
// reflect.Value, which stands for null.
func (f *fieldInfo) value(record reflect.Value) reflect.Value {
	for record.IsValid() && (record.Kind() == reflect.Pointer || record.Kind() == reflect.Interface) {
		if record.IsNil() {
			return reflect.Value{}
		}
		record = record.Elem()
	}

	if !record.IsValid() || record.Kind() != reflect.Struct {
		return reflect.Value{}
	}

	v, err := record.FieldByIndexErr(f.Index)
	if err != nil {
		return reflect.Value{}
	}

	if f.Optional {
		if v.IsNil() {
			return reflect.Value{}
		}

		return v.Elem()
	}

	return v
}

func isNilableKind(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

func isNull(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}

	return isNilableKind(v.Kind()) && v.IsNil()
}

// liftLiteral dereferences an optional literal. It reports null for a nil
// literal or a nil pointer.
func liftLiteral(literal any) (reflect.Value, bool) {
	v := reflect.ValueOf(literal)

	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, true
		}
		v = v.Elem()
	}

	if !v.IsValid() {
		return reflect.Value{}, true
	}

	// A pointee still aliases the caller's variable.
	if v.CanAddr() {
		detached := reflect.New(v.Type()).Elem()
		detached.Set(v)
		v = detached
	}

	return v, false
}

// convertLiteral converts lit to the field base type. Same-class numeric
// conversions must round-trip without loss.
func convertLiteral(lit reflect.Value, to reflect.Type) (reflect.Value, error) {
	from := lit.Type()

	if from == to {
		return lit, nil
	}

	if from.AssignableTo(to) {
		out := reflect.New(to).Elem()
		out.Set(lit)

		return out, nil
	}

	fromClass, toClass := kindClass(from.Kind()), kindClass(to.Kind())
	if fromClass == classOther || fromClass != toClass || !from.ConvertibleTo(to) {
		return reflect.Value{}, fmt.Errorf("%w: cannot compare %s with %s", ErrTypeMismatch, to, from)
	}

	out := lit.Convert(to)

	if fromClass == classFloat && math.IsNaN(lit.Float()) {
		return out, nil
	}

	if fromClass != classString && !out.Convert(from).Equal(lit) {
		return reflect.Value{}, fmt.Errorf("%w: %v does not fit in %s", ErrTypeMismatch, lit, to)
	}

	return out, nil
}

type literalClass uint8

const (
	classOther literalClass = iota
	classSigned
	classUnsigned
	classFloat
	classString
)

func kindClass(k reflect.Kind) literalClass {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return classSigned
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return classUnsigned
	case reflect.Float32, reflect.Float64:
		return classFloat
	case reflect.String:
		return classString
	default:
		return classOther
	}
}

// orderingFor returns a three-way comparison for ordered base types.
func orderingFor(t reflect.Type) (ordering, bool) {
	if t == timeType {
		return func(a, b reflect.Value) (int, bool) {
			return a.Interface().(time.Time).Compare(b.Interface().(time.Time)), true
		}, true
	}

	switch kindClass(t.Kind()) {
	case classSigned:
		return func(a, b reflect.Value) (int, bool) { return cmp.Compare(a.Int(), b.Int()), true }, true
	case classUnsigned:
		return func(a, b reflect.Value) (int, bool) { return cmp.Compare(a.Uint(), b.Uint()), true }, true
	case classFloat:
		return func(a, b reflect.Value) (int, bool) {
			x, y := a.Float(), b.Float()
			if math.IsNaN(x) || math.IsNaN(y) {
				return 0, false
			}

			return cmp.Compare(x, y), true
		}, true
	case classString:
		return func(a, b reflect.Value) (int, bool) { return strings.Compare(a.String(), b.String()), true }, true
	default:
		return nil, false
	}
}

// equalityFor returns an equality test for t. Unordered operands are never
// equal, so NaN matches nothing.
func equalityFor(t reflect.Type) (equality, bool) {
	if ord, ok := orderingFor(t); ok {
		return func(a, b reflect.Value) bool {
			c, ordered := ord(a, b)

			return ordered && c == 0
		}, true
	}

	if t.Kind() == reflect.Bool {
		return func(a, b reflect.Value) bool { return a.Bool() == b.Bool() }, true
	}

	if strictlyComparable(t) {
		return func(a, b reflect.Value) bool { return a.Equal(b) }, true
	}

	return nil, false
}

// strictlyComparable reports whether == on t can never panic.
func strictlyComparable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return false
	case reflect.Array:
		return strictlyComparable(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !strictlyComparable(t.Field(i).Type) {
				return false
			}
		}

		return true
	default:
		return t.Comparable()
	}
}
