// Package option implements the functional option pattern for Config structures.
package option

// Option configures a Config structure.
type Option[Config any] interface {
	Configure(*Config)
}

// Func is the function form of an Option.
type Func[Config any] func(*Config)

func (fn Func[Config]) Configure(c *Config) { fn(c) }

// ToConfig builds a Config from the options.
// When *Config has an Init method, it is called before the options are applied,
// so defaults can be overridden.
func ToConfig[Config any, Opt Option[Config]](opts []Opt) Config {
	var c Config
	if i, ok := any(&c).(initer); ok {
		i.Init()
	}
	for _, opt := range opts {
		opt.Configure(&c)
	}
	return c
}

type initer interface{ Init() }
