package crudkit

import (
	"reflect"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"go.llib.dev/rxcrud/pkg/zerokit"
	"go.llib.dev/rxcrud/port/crud/extid"
	"go.llib.dev/rxcrud/port/option"
)

type Option[ENT, ID any] = option.Option[Config[ENT, ID]]

type Config[ENT, ID any] struct {
	// IDA tells how to access the identifier of an ENT.
	// Defaults to the `ext:"id"` tag or the ID field.
	IDA extid.Accessor[ENT, ID]
	// EntityName labels logs, metrics and spans. Defaults to the ENT type name.
	EntityName string
	Logger     *zap.Logger
	Metrics    *Metrics
	Tracer     trace.Tracer
	// DeleteConcurrency bounds the number of deletes in flight for the batch delete forms.
	// Values below 2 mean sequential deletion.
	DeleteConcurrency int
}

func (c *Config[ENT, ID]) Init() {
	c.DeleteConcurrency = 1
}

// Configure applies the non-zero fields of c to oth.
func (c Config[ENT, ID]) Configure(oth *Config[ENT, ID]) {
	if c.IDA != nil {
		oth.IDA = c.IDA
	}
	oth.EntityName = zerokit.Coalesce(c.EntityName, oth.EntityName)
	oth.Logger = zerokit.Coalesce(c.Logger, oth.Logger)
	oth.Metrics = zerokit.Coalesce(c.Metrics, oth.Metrics)
	if c.Tracer != nil {
		oth.Tracer = c.Tracer
	}
	oth.DeleteConcurrency = zerokit.Coalesce(c.DeleteConcurrency, oth.DeleteConcurrency)
}

func WithLogger[ENT, ID any](l *zap.Logger) Option[ENT, ID] {
	return option.Func[Config[ENT, ID]](func(c *Config[ENT, ID]) { c.Logger = l })
}

func WithMetrics[ENT, ID any](m *Metrics) Option[ENT, ID] {
	return option.Func[Config[ENT, ID]](func(c *Config[ENT, ID]) { c.Metrics = m })
}

func WithTracer[ENT, ID any](t trace.Tracer) Option[ENT, ID] {
	return option.Func[Config[ENT, ID]](func(c *Config[ENT, ID]) { c.Tracer = t })
}

func WithDeleteConcurrency[ENT, ID any](n int) Option[ENT, ID] {
	return option.Func[Config[ENT, ID]](func(c *Config[ENT, ID]) { c.DeleteConcurrency = n })
}

func (c Config[ENT, ID]) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c Config[ENT, ID]) entityName() string {
	if c.EntityName != "" {
		return c.EntityName
	}
	typ := reflect.TypeOf((*ENT)(nil)).Elem()
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Name() != "" {
		return typ.Name()
	}
	return typ.String()
}
