package param

// Builder provides a fluent API for creating parameters
type Builder struct {
	param *Parameter
}

// New creates a new parameter builder
func New(address uint32, name string) *Builder {
	return &Builder{
		param: &Parameter{
			Address:   address,
			Name:      name,
			ShortName: name,
			Min:       0,
			Max:       1,
		},
	}
}

// ShortName sets the short name
func (b *Builder) ShortName(name string) *Builder {
	b.param.ShortName = name
	return b
}

// Range sets the min and max plain values
func (b *Builder) Range(min, max float64) *Builder {
	b.param.Min = min
	b.param.Max = max
	return b
}

// Default sets the default plain value
func (b *Builder) Default(value float64) *Builder {
	b.param.DefaultValue = value
	return b
}

// Unit sets the unit string
func (b *Builder) Unit(unit string) *Builder {
	b.param.Unit = unit
	return b
}

// Formatter sets custom value formatting
func (b *Builder) Formatter(format func(float64) string, parse func(string) (float64, error)) *Builder {
	b.param.SetFormatter(format, parse)
	return b
}

// Build returns the configured parameter
func (b *Builder) Build() *Parameter {
	return b.param
}
