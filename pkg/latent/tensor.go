package latent

import (
	"fmt"
	"math"
)

// Tensor is a dense float32 tensor in NCHW layout.
//
// The zero value is not usable; construct tensors with New, Full or
// FromSlice. Data is stored row-major: index (n, c, h, w) maps to
// ((n*C+c)*H+h)*W+w.
type Tensor struct {
	data []float32
	n    int
	c    int
	h    int
	w    int
}

// New creates a zero-filled tensor with the given dimensions.
func New(n, c, h, w int) (*Tensor, error) {
	if n <= 0 || c <= 0 || h <= 0 || w <= 0 {
		return nil, fmt.Errorf("invalid tensor shape (%d, %d, %d, %d): all dimensions must be positive", n, c, h, w)
	}
	return &Tensor{
		data: make([]float32, n*c*h*w),
		n:    n,
		c:    c,
		h:    h,
		w:    w,
	}, nil
}

// MustNew is like New but panics on an invalid shape.
// Intended for tests and fixed-shape literals.
func MustNew(n, c, h, w int) *Tensor {
	t, err := New(n, c, h, w)
	if err != nil {
		panic(err)
	}
	return t
}

// Full creates a tensor with every element set to value.
func Full(n, c, h, w int, value float32) (*Tensor, error) {
	t, err := New(n, c, h, w)
	if err != nil {
		return nil, err
	}
	for i := range t.data {
		t.data[i] = value
	}
	return t, nil
}

// FromSlice creates a tensor that adopts the given backing slice.
// The slice length must equal n*c*h*w. The tensor takes ownership;
// callers must not modify the slice afterwards.
func FromSlice(data []float32, n, c, h, w int) (*Tensor, error) {
	if n <= 0 || c <= 0 || h <= 0 || w <= 0 {
		return nil, fmt.Errorf("invalid tensor shape (%d, %d, %d, %d): all dimensions must be positive", n, c, h, w)
	}
	if len(data) != n*c*h*w {
		return nil, fmt.Errorf("data length %d does not match shape (%d, %d, %d, %d)", len(data), n, c, h, w)
	}
	return &Tensor{data: data, n: n, c: c, h: h, w: w}, nil
}

// Dims returns the tensor's dimensions (batch, channels, height, width).
func (t *Tensor) Dims() (n, c, h, w int) {
	return t.n, t.c, t.h, t.w
}

// Dim returns the size of a single axis (0=batch, 1=channels, 2=height, 3=width).
func (t *Tensor) Dim(axis int) int {
	switch axis {
	case 0:
		return t.n
	case 1:
		return t.c
	case 2:
		return t.h
	case 3:
		return t.w
	default:
		return 0
	}
}

// NumElements returns the total element count.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the backing slice. Mutating it mutates the tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// index computes the flat offset for (n, c, h, w). Bounds are not checked.
func (t *Tensor) index(n, c, h, w int) int {
	return ((n*t.c+c)*t.h+h)*t.w + w
}

// At returns the element at (n, c, h, w). Bounds are not checked.
func (t *Tensor) At(n, c, h, w int) float32 {
	return t.data[t.index(n, c, h, w)]
}

// Set assigns the element at (n, c, h, w). Bounds are not checked.
func (t *Tensor) Set(n, c, h, w int, v float32) {
	t.data[t.index(n, c, h, w)] = v
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	data := make([]float32, len(t.data))
	copy(data, t.data)
	return &Tensor{data: data, n: t.n, c: t.c, h: t.h, w: t.w}
}

// SameShape reports whether two tensors have identical dimensions.
func (t *Tensor) SameShape(other *Tensor) bool {
	return t.n == other.n && t.c == other.c && t.h == other.h && t.w == other.w
}

// Equal reports whether two tensors have identical shape and bitwise
// identical contents. NaN elements never compare equal.
func (t *Tensor) Equal(other *Tensor) bool {
	if !t.SameShape(other) {
		return false
	}
	for i, v := range t.data {
		if v != other.data[i] {
			return false
		}
	}
	return true
}

// Scale multiplies every element by factor in place and returns the tensor.
func (t *Tensor) Scale(factor float32) *Tensor {
	for i := range t.data {
		t.data[i] *= factor
	}
	return t
}

// Add adds delta to every element in place and returns the tensor.
func (t *Tensor) Add(delta float32) *Tensor {
	for i := range t.data {
		t.data[i] += delta
	}
	return t
}

// Mean returns the arithmetic mean over all elements.
func (t *Tensor) Mean() float64 {
	var sum float64
	for _, v := range t.data {
		sum += float64(v)
	}
	return sum / float64(len(t.data))
}

// Std returns the population standard deviation over all elements.
func (t *Tensor) Std() float64 {
	mean := t.Mean()
	var sum float64
	for _, v := range t.data {
		d := float64(v) - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(t.data)))
}

// MinMax returns the smallest and largest element values.
func (t *Tensor) MinMax() (min, max float32) {
	min, max = t.data[0], t.data[0]
	for _, v := range t.data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// String returns a compact shape/dtype summary, not the contents.
// Used by state snapshots and debug output.
func (t *Tensor) String() string {
	return fmt.Sprintf("<Tensor: shape=(%d, %d, %d, %d), dtype=float32>", t.n, t.c, t.h, t.w)
}

// channelStats computes per-(batch, channel) mean and standard deviation
// over the spatial dimensions. Results are indexed n*C+c.
func channelStats(t *Tensor) (means, stds []float64) {
	plane := t.h * t.w
	means = make([]float64, t.n*t.c)
	stds = make([]float64, t.n*t.c)
	for n := 0; n < t.n; n++ {
		for c := 0; c < t.c; c++ {
			base := (n*t.c + c) * plane
			var sum float64
			for i := 0; i < plane; i++ {
				sum += float64(t.data[base+i])
			}
			mean := sum / float64(plane)
			var sq float64
			for i := 0; i < plane; i++ {
				d := float64(t.data[base+i]) - mean
				sq += d * d
			}
			means[n*t.c+c] = mean
			stds[n*t.c+c] = math.Sqrt(sq / float64(plane))
		}
	}
	return means, stds
}
