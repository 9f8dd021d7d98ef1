package param

import (
	"fmt"
	"strconv"
)

// Parameter describes a control exposed by a kernel: its address, display
// metadata and value range. The value itself lives in the kernel's Ramper;
// this type only carries the control-plane description.
type Parameter struct {
	Address      uint32
	Name         string
	ShortName    string
	Unit         string
	Min          float64
	Max          float64
	DefaultValue float64

	// Value formatting
	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// SetFormatter sets custom value formatting
func (p *Parameter) SetFormatter(format func(float64) string, parse func(string) (float64, error)) {
	p.formatFunc = format
	p.parseFunc = parse
}

// FormatValue returns the formatted plain parameter value
func (p *Parameter) FormatValue(plain float64) string {
	if p.formatFunc != nil {
		return p.formatFunc(plain)
	}
	return fmt.Sprintf("%.2f", plain)
}

// ParseValue parses a string to a plain value
func (p *Parameter) ParseValue(str string) (float64, error) {
	if p.parseFunc != nil {
		return p.parseFunc(str)
	}
	return strconv.ParseFloat(str, 64)
}

// Normalize converts a plain value to normalized (0-1)
func (p *Parameter) Normalize(plain float64) float64 {
	if p.Max <= p.Min {
		return 0
	}
	normalized := (plain - p.Min) / (p.Max - p.Min)
	if normalized < 0 {
		return 0
	}
	if normalized > 1 {
		return 1
	}
	return normalized
}

// Denormalize converts a normalized (0-1) value to a plain value
func (p *Parameter) Denormalize(normalized float64) float64 {
	return p.Min + normalized*(p.Max-p.Min)
}

// Clamp restricts a plain value to the parameter's range
func (p *Parameter) Clamp(plain float64) float64 {
	if plain < p.Min {
		return p.Min
	}
	if plain > p.Max {
		return p.Max
	}
	return plain
}
