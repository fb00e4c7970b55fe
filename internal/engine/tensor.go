package engine

import "image"

// Tensor is an in-memory RGB pixel grid with channel values normalized to
// [0,1]. It is the working representation for tiling and overlap-add
// reconstruction; tiles are copies scoped to one engine invocation.
type Tensor struct {
	Width  int
	Height int
	// Pix holds interleaved RGB samples, len = Width*Height*3.
	Pix []float32
}

// NewTensor allocates a zeroed tensor of the given dimensions.
func NewTensor(width, height int) *Tensor {
	return &Tensor{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*3),
	}
}

// At returns the sample for channel c (0=R, 1=G, 2=B) at (x, y).
func (t *Tensor) At(x, y, c int) float32 {
	return t.Pix[(y*t.Width+x)*3+c]
}

// Set stores the sample for channel c at (x, y).
func (t *Tensor) Set(x, y, c int, v float32) {
	t.Pix[(y*t.Width+x)*3+c] = v
}

// Clamp bounds every sample to [0,1] in place.
func (t *Tensor) Clamp() {
	for i, v := range t.Pix {
		if v < 0 {
			t.Pix[i] = 0
		} else if v > 1 {
			t.Pix[i] = 1
		}
	}
}

// sub copies the given region into a new tensor.
func (t *Tensor) sub(r region) *Tensor {
	out := NewTensor(r.Width, r.Height)
	for y := 0; y < r.Height; y++ {
		srcOff := ((r.Y+y)*t.Width + r.X) * 3
		dstOff := y * r.Width * 3
		copy(out.Pix[dstOff:dstOff+r.Width*3], t.Pix[srcOff:srcOff+r.Width*3])
	}
	return out
}

// FromImage converts a decoded image into a normalized tensor, dropping any
// alpha channel.
func FromImage(img image.Image) *Tensor {
	bounds := img.Bounds()
	t := NewTensor(bounds.Dx(), bounds.Dy())
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			t.Pix[i] = float32(r) / 65535
			t.Pix[i+1] = float32(g) / 65535
			t.Pix[i+2] = float32(b) / 65535
			i += 3
		}
	}
	return t
}

// ToImage converts the tensor back into an 8-bit image. Samples outside
// [0,1] are clamped during quantization.
func (t *Tensor) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			src := (y*t.Width + x) * 3
			dst := y*img.Stride + x*4
			img.Pix[dst] = quantize(t.Pix[src])
			img.Pix[dst+1] = quantize(t.Pix[src+1])
			img.Pix[dst+2] = quantize(t.Pix[src+2])
			img.Pix[dst+3] = 0xff
		}
	}
	return img
}

func quantize(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(v*255 + 0.5)
}
