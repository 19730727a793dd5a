// Package env reads typed configuration values from the process environment.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"go.llib.dev/rxcrud/pkg/errorkit"
)

const (
	ErrMissingEnvironmentVariable errorkit.Error = "missing environment variable"
	ErrUnsupportedType            errorkit.Error = "unsupported environment variable type"
)

// Lookup reads the key from the environment and parses it into T.
// The bool result reports whether a value was present, either in the environment or as a default.
//
// Supported types: string, bool, signed and unsigned integers, floats, time.Duration.
func Lookup[T any](key string, opts ...LookupOption) (T, bool, error) {
	var (
		zero T
		conf lookupOptions
	)
	for _, opt := range opts {
		opt.configure(&conf)
	}
	raw, ok := os.LookupEnv(key)
	if !ok && conf.DefaultValue != nil {
		raw, ok = *conf.DefaultValue, true
	}
	if !ok {
		if conf.IsRequired {
			return zero, false, ErrMissingEnvironmentVariable.F("%s", key)
		}
		return zero, false, nil
	}
	var v T
	if err := parse(raw, reflect.ValueOf(&v).Elem()); err != nil {
		return zero, false, fmt.Errorf("error parsing the value of %s: %w", key, err)
	}
	return v, true, nil
}

type LookupOption interface{ configure(*lookupOptions) }

type lookupOptions struct {
	DefaultValue *string
	IsRequired   bool
}

type funcLookupOption func(*lookupOptions)

func (fn funcLookupOption) configure(o *lookupOptions) { fn(o) }

// DefaultValue is used when the environment variable is not set.
func DefaultValue(val string) LookupOption {
	return funcLookupOption(func(o *lookupOptions) { o.DefaultValue = &val })
}

// Required makes Lookup fail when the variable is not set.
func Required() LookupOption {
	return funcLookupOption(func(o *lookupOptions) { o.IsRequired = true })
}

// LoadDotEnv loads the given .env files into the process environment.
// Without arguments it loads ".env" from the working directory.
// Missing files are ignored, values already set in the environment win.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, filename := range filenames {
		if err := godotenv.Load(filename); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func parse(raw string, v reflect.Value) error {
	if v.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	}
	switch v.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(raw, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	default:
		return ErrUnsupportedType.F("%s", v.Type())
	}
	return nil
}
