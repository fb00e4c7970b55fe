package engine

import (
	"image"
	"image/color"
	"testing"
)

func TestFromImageToImageRoundTrip(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{G: 128, A: 255})
	img.SetNRGBA(2, 1, color.NRGBA{B: 64, A: 255})

	tensor := FromImage(img)
	if tensor.Width != 3 || tensor.Height != 2 {
		t.Fatalf("dimensions mismatch: %dx%d", tensor.Width, tensor.Height)
	}
	if got := tensor.At(0, 0, 0); got < 0.99 {
		t.Fatalf("red sample mismatch: %f", got)
	}

	back := tensor.ToImage()
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			want := img.NRGBAAt(x, y)
			got := back.NRGBAAt(x, y)
			if got.R != want.R || got.G != want.G || got.B != want.B {
				t.Fatalf("pixel (%d,%d) mismatch: got %+v want %+v", x, y, got, want)
			}
		}
	}
}

func TestClampBoundsSamples(t *testing.T) {
	tensor := NewTensor(1, 1)
	tensor.Pix[0] = -0.5
	tensor.Pix[1] = 1.5
	tensor.Pix[2] = 0.25

	tensor.Clamp()

	if tensor.Pix[0] != 0 || tensor.Pix[1] != 1 || tensor.Pix[2] != 0.25 {
		t.Fatalf("clamp mismatch: %v", tensor.Pix)
	}
}

func TestSubCopiesRegion(t *testing.T) {
	src := NewTensor(4, 4)
	for i := range src.Pix {
		src.Pix[i] = float32(i)
	}

	tile := src.sub(region{X: 1, Y: 2, Width: 2, Height: 2})
	if tile.Width != 2 || tile.Height != 2 {
		t.Fatalf("tile dimensions mismatch: %dx%d", tile.Width, tile.Height)
	}
	if tile.At(0, 0, 0) != src.At(1, 2, 0) || tile.At(1, 1, 2) != src.At(2, 3, 2) {
		t.Fatal("tile samples do not match source region")
	}

	// Mutating the tile must not touch the source.
	tile.Set(0, 0, 0, -99)
	if src.At(1, 2, 0) == -99 {
		t.Fatal("sub must copy, not alias")
	}
}
