package container

import "fmt"

// Array is a flat backing slice plus a shape. The element type and the
// shape are fixed when the Array is built; variables never change shape
// in place, they are replaced wholesale.
type Array struct {
	values any
	shape  []int
}

// NewArray wraps a flat slice as an n-dimensional array. With no shape
// given the array is 1-D. The product of the shape must equal the slice
// length.
func NewArray(values any, shape ...int) (Array, error) {
	n, ok := sliceLen(values)
	if !ok {
		return Array{}, fmt.Errorf("unsupported element type %T", values)
	}

	if len(shape) == 0 {
		shape = []int{n}
	}

	total := 1
	for _, d := range shape {
		if d < 0 {
			return Array{}, fmt.Errorf("negative dimension %d", d)
		}
		total *= d
	}
	if total != n {
		return Array{}, fmt.Errorf("shape %v does not cover %d values", shape, n)
	}

	s := make([]int, len(shape))
	copy(s, shape)
	return Array{values: values, shape: s}, nil
}

// Floats is shorthand for a 1-D float64 array.
func Floats(values []float64) Array {
	a, _ := NewArray(values)
	return a
}

// Ints is shorthand for a 1-D int64 array.
func Ints(values []int64) Array {
	a, _ := NewArray(values)
	return a
}

// Strings is shorthand for a 1-D string array.
func Strings(values []string) Array {
	a, _ := NewArray(values)
	return a
}

// Len returns the total number of elements.
func (a Array) Len() int {
	n, _ := sliceLen(a.values)
	return n
}

// Shape returns a copy of the dimensions.
func (a Array) Shape() []int {
	s := make([]int, len(a.shape))
	copy(s, a.shape)
	return s
}

// Values returns the flat backing slice.
func (a Array) Values() any {
	return a.values
}

// DType names the element type in the style NetCDF tools use.
func (a Array) DType() string {
	switch a.values.(type) {
	case []float64:
		return "float64"
	case []float32:
		return "float32"
	case []int64:
		return "int64"
	case []int32:
		return "int32"
	case []int16:
		return "int16"
	case []int8:
		return "int8"
	case []uint64:
		return "uint64"
	case []uint32:
		return "uint32"
	case []uint16:
		return "uint16"
	case []uint8:
		return "uint8"
	case []string:
		return "string"
	default:
		return fmt.Sprintf("%T", a.values)
	}
}

// Float64s returns the backing slice when the element type is float64.
func (a Array) Float64s() ([]float64, bool) {
	v, ok := a.values.([]float64)
	return v, ok
}

// Int64s returns the backing slice when the element type is int64.
func (a Array) Int64s() ([]int64, bool) {
	v, ok := a.values.([]int64)
	return v, ok
}

// AsFloat64s converts any numeric element type to float64, allocating a
// new slice unless the array already holds float64 values.
func (a Array) AsFloat64s() ([]float64, bool) {
	switch v := a.values.(type) {
	case []float64:
		return v, true
	case []float32:
		return convertFloats(v), true
	case []int64:
		return convertFloats(v), true
	case []int32:
		return convertFloats(v), true
	case []int16:
		return convertFloats(v), true
	case []int8:
		return convertFloats(v), true
	case []uint64:
		return convertFloats(v), true
	case []uint32:
		return convertFloats(v), true
	case []uint16:
		return convertFloats(v), true
	case []uint8:
		return convertFloats(v), true
	default:
		return nil, false
	}
}

func convertFloats[T int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 | float32](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func sliceLen(values any) (int, bool) {
	switch v := values.(type) {
	case []float64:
		return len(v), true
	case []float32:
		return len(v), true
	case []int64:
		return len(v), true
	case []int32:
		return len(v), true
	case []int16:
		return len(v), true
	case []int8:
		return len(v), true
	case []uint64:
		return len(v), true
	case []uint32:
		return len(v), true
	case []uint16:
		return len(v), true
	case []uint8:
		return len(v), true
	case []string:
		return len(v), true
	default:
		return 0, false
	}
}
