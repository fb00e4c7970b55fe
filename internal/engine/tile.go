package engine

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// region is a tile's placement within the source buffer.
type region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// tileRegions covers the full width×height grid with square tiles of edge
// tileSize and the given pixel overlap between neighbors. Tiles at the right
// and bottom edges may be partial; every source pixel belongs to at least one
// tile.
func tileRegions(width, height, tileSize, overlap int) []region {
	stride := tileSize - overlap
	var regions []region
	for y := 0; y < height; y += stride {
		th := tileSize
		if y+th > height {
			th = height - y
		}
		for x := 0; x < width; x += stride {
			tw := tileSize
			if x+tw > width {
				tw = width - x
			}
			regions = append(regions, region{X: x, Y: y, Width: tw, Height: th})
		}
	}
	return regions
}

// accumulate adds an enhanced tile into the output buffer at (ox, oy) and
// bumps the per-pixel contribution count used for overlap normalization.
func accumulate(out *Tensor, weights []float32, tile *Tensor, ox, oy int) {
	for y := 0; y < tile.Height; y++ {
		srcOff := y * tile.Width * 3
		dstRow := (oy+y)*out.Width + ox
		dstOff := dstRow * 3
		for x := 0; x < tile.Width; x++ {
			out.Pix[dstOff] += tile.Pix[srcOff]
			out.Pix[dstOff+1] += tile.Pix[srcOff+1]
			out.Pix[dstOff+2] += tile.Pix[srcOff+2]
			weights[dstRow+x]++
			srcOff += 3
			dstOff += 3
		}
	}
}

// normalize divides each output pixel by its contribution count, removing
// seam artifacts where tiles overlap.
func normalize(out *Tensor, weights []float32) {
	for i, w := range weights {
		if w <= 1 {
			continue
		}
		off := i * 3
		out.Pix[off] /= w
		out.Pix[off+1] /= w
		out.Pix[off+2] /= w
	}
}

// resample scales the tensor to the target dimensions with Catmull-Rom
// filtering.
func resample(t *Tensor, width, height int) *Tensor {
	if width == t.Width && height == t.Height {
		return t
	}
	src := t.ToImage()
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return FromImage(dst)
}
