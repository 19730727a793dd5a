package memory

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"

	uuid "github.com/satori/go.uuid"
)

var uidSerial atomic.Int64

// MakeID generates a new identifier for string and integer based ID types.
// String kinds receive a random UUID, integer kinds a process wide serial number.
func MakeID[ID any](ctx context.Context) (ID, error) {
	var id ID
	if err := ctx.Err(); err != nil {
		return id, err
	}
	rv := reflect.ValueOf(&id).Elem()
	switch rv.Kind() {
	case reflect.String:
		rv.SetString(newUUID())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		rv.SetInt(uidSerial.Add(1))
	default:
		const format = "%T id type is not supported by default, please provide an id generator in the MakeID field"
		return id, fmt.Errorf(format, id)
	}
	return id, nil
}

func newUUID() string {
	return uuid.NewV4().String()
}
