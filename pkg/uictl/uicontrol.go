// Package uictl defines the small control surfaces that presentation layers
// drive without knowing what sits behind them.
package uictl

// Button is a momentary control. Press reports whether the press was
// accepted.
type Button interface {
	Press() bool
}

// ButtonFunc adapts a function to a Button.
type ButtonFunc func() bool

// Press calls f.
func (f ButtonFunc) Press() bool { return f() }

// Gauge is a control that can read some value.
type Gauge[T any] interface {
	Read() T
}

// GaugeFunc adapts a function to a Gauge.
type GaugeFunc[T any] func() T

// Read calls f.
func (f GaugeFunc[T]) Read() T { return f() }
