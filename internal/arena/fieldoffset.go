package arena

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// FieldOffset returns the byte offset of a named struct field within the
// packed little-endian layout produced by WriteStruct. It panics on an
// unknown field or an unencodable type; layouts are fixed at compile time,
// so a failure here is a programming error, not an input error.
func FieldOffset(v any, field string) int {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("arena: FieldOffset on non-struct %T", v))
	}
	off := 0
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Name == field {
			return off
		}
		n := binary.Size(reflect.New(f.Type).Elem().Interface())
		if n < 0 {
			panic(fmt.Sprintf("arena: unencodable field %s.%s", t.Name(), f.Name))
		}
		off += n
	}
	panic(fmt.Sprintf("arena: %s has no field %s", t.Name(), field))
}
