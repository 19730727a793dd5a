// Package extid locates the external identifier field of an entity.
package extid

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.llib.dev/rxcrud/pkg/errorkit"
	"go.llib.dev/rxcrud/pkg/reflectkit"
	"go.llib.dev/rxcrud/pkg/zerokit"
)

const ErrIDFieldNotFound errorkit.Error = "could not locate ID field in the given structure"

// Lookup returns the non-zero identifier of an entity.
// The field is located by the `ext:"id"` tag, by the ID field name,
// or inside the first embedded struct that has one.
func Lookup[ID, ENT any](ent ENT) (id ID, ok bool) {
	rv := reflectkit.BaseValue(reflect.ValueOf(&ent).Elem())
	if !rv.IsValid() {
		return id, false
	}
	_, field, ok := ExtractIdentifierField(rv)
	if !ok || field.IsZero() {
		return id, false
	}
	id, ok = field.Interface().(ID)
	return id, ok
}

// Set assigns the identifier to the entity behind the pointer.
func Set[ID any](ptr any, id ID) error {
	if ptr == nil {
		return fmt.Errorf("nil given as ptr for extid.Set[%T]", id)
	}
	rv := reflect.ValueOf(ptr)
	if rv.Kind() != reflect.Pointer {
		return fmt.Errorf("extid.Set expects *ENT, got %T", ptr)
	}
	// **T and deeper point to the same struct, which is settable through them.
	base := reflectkit.BaseValue(rv)
	if !base.IsValid() || !base.CanSet() {
		return fmt.Errorf("nil pointer given for extid.Set[%T]", id)
	}
	_, field, ok := ExtractIdentifierField(base)
	if !ok {
		return ErrIDFieldNotFound
	}
	idv := reflect.ValueOf(id)
	if !idv.Type().AssignableTo(field.Type()) {
		return fmt.Errorf("extid.Set: %s is not assignable to the %s ID field", idv.Type(), field.Type())
	}
	field.Set(idv)
	return nil
}

type extractFunc func(reflect.Value) (reflect.StructField, reflect.Value, bool)

var extractCache sync.Map // reflect.Type -> extractFunc

// ExtractIdentifierField returns the ID struct field and its value.
func ExtractIdentifierField(ent any) (reflect.StructField, reflect.Value, bool) {
	val, ok := ent.(reflect.Value)
	if !ok {
		val = reflect.ValueOf(ent)
	}
	val = reflectkit.BaseValue(val)
	if !val.IsValid() {
		return reflect.StructField{}, reflect.Value{}, false
	}
	fn, ok := extractCache.Load(val.Type())
	if !ok {
		fn, _ = extractCache.LoadOrStore(val.Type(), makeExtractFunc(val.Type()))
	}
	return fn.(extractFunc)(val)
}

func makeExtractFunc(typ reflect.Type) extractFunc {
	notFound := func(reflect.Value) (reflect.StructField, reflect.Value, bool) {
		return reflect.StructField{}, reflect.Value{}, false
	}
	if typ.Kind() != reflect.Struct {
		return notFound
	}
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if strings.EqualFold(sf.Tag.Get("ext"), "id") {
			return func(v reflect.Value) (reflect.StructField, reflect.Value, bool) {
				return sf, v.Field(sf.Index[0]), true
			}
		}
	}
	if sf, ok := typ.FieldByName("ID"); ok && len(sf.Index) == 1 {
		return func(v reflect.Value) (reflect.StructField, reflect.Value, bool) {
			return sf, v.Field(sf.Index[0]), true
		}
	}
	for i := 0; i < typ.NumField(); i++ {
		sf := typ.Field(i)
		if !sf.Anonymous {
			continue
		}
		ft := sf.Type
		if ft.Kind() == reflect.Pointer {
			continue
		}
		if _, _, ok := makeExtractFunc(ft)(reflect.New(ft).Elem()); ok {
			return func(v reflect.Value) (reflect.StructField, reflect.Value, bool) {
				return ExtractIdentifierField(v.Field(sf.Index[0]))
			}
		}
	}
	return notFound
}

// Accessor describes how to access the ID field of an ENT.
// The returned pointer is used both to read and to assign the identifier.
//
//	extid.Accessor[Foo, FooID](func(v *Foo) *FooID { return &v.ID })
//
// A nil Accessor falls back to Lookup and Set.
type Accessor[ENT, ID any] func(*ENT) *ID

func (fn Accessor[ENT, ID]) Lookup(ent ENT) (ID, bool) {
	if fn == nil {
		return Lookup[ID](ent)
	}
	if zerokit.IsNil(ent) {
		var zero ID
		return zero, false
	}
	id := *fn.ptr(&ent)
	return id, !zerokit.IsZero(id)
}

func (fn Accessor[ENT, ID]) Set(ent *ENT, id ID) error {
	if fn == nil {
		return Set(ent, id)
	}
	if ent == nil {
		return fmt.Errorf("nil %T pointer given for set %T", *new(ENT), id)
	}
	*fn.ptr(ent) = id
	return nil
}

func (fn Accessor[ENT, ID]) ptr(ent *ENT) *ID {
	id := fn(ent)
	if id == nil {
		panic(fmt.Sprintf("implementation error: %T returned a nil ID pointer", fn))
	}
	return id
}
