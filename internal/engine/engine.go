// Package engine implements tiled 4× super-resolution under strict
// output-size ceilings. Large sources are processed tile by tile to bound
// memory, and overlapping tiles are overlap-add normalized so the
// reconstruction carries no seams.
package engine

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/rs/zerolog"

	"upscaler/internal/domain"
)

const (
	// ScaleFactor is the fixed enhancement factor of the model.
	ScaleFactor = 4
	// MaxInputDim rejects anything above this on either source axis.
	MaxInputDim = 4096
	// SafeUpscaledDim bounds the intermediate 4× result; larger sources are
	// pre-downscaled so the scaled output lands within it.
	SafeUpscaledDim = 8192
	// MaxFinalDim is the per-axis ceiling of the delivered image.
	MaxFinalDim = 6000
	// MaxDimensionSum is the transport limit on width + height.
	MaxDimensionSum = 10000

	DefaultTileSize    = 512
	DefaultTileOverlap = 8

	jpegQuality = 90
)

// Config assembles an Engine.
type Config struct {
	Model Model
	// TileSize and TileOverlap default to 512/8 when zero.
	TileSize    int
	TileOverlap int
	Logger      zerolog.Logger
}

// Engine runs the tiled super-resolution pipeline.
type Engine struct {
	model       Model
	tileSize    int
	tileOverlap int
	logger      zerolog.Logger
}

func New(cfg Config) (*Engine, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("engine: model is required")
	}
	tileSize := cfg.TileSize
	if tileSize == 0 {
		tileSize = DefaultTileSize
	}
	overlap := cfg.TileOverlap
	if overlap == 0 {
		overlap = DefaultTileOverlap
	}
	if overlap < 1 || overlap >= tileSize {
		return nil, fmt.Errorf("engine: overlap %d invalid for tile size %d", overlap, tileSize)
	}
	return &Engine{
		model:       cfg.Model,
		tileSize:    tileSize,
		tileOverlap: overlap,
		logger:      cfg.Logger,
	}, nil
}

// Upscale enhances sourcePath into destPath. The source file is removed on
// exit, success or failure. The input ceiling is enforced before any
// full-size buffer is allocated.
func (e *Engine) Upscale(ctx context.Context, sourcePath, destPath string) error {
	defer func() {
		if err := os.Remove(sourcePath); err != nil && !os.IsNotExist(err) {
			e.logger.Warn().Err(err).Str("path", sourcePath).Msg("engine: remove source failed")
		}
	}()

	src, err := decodeFile(sourcePath)
	if err != nil {
		return fmt.Errorf("%w: decode source: %v", domain.ErrEngineFailure, err)
	}
	if src.Width > MaxInputDim || src.Height > MaxInputDim {
		return fmt.Errorf("%w: %dx%d exceeds %dpx limit",
			domain.ErrInputTooLarge, src.Width, src.Height, MaxInputDim)
	}
	e.logger.Debug().Int("width", src.Width).Int("height", src.Height).Msg("engine: source decoded")

	scale := e.model.Scale()
	if src.Width*scale > SafeUpscaledDim || src.Height*scale > SafeUpscaledDim {
		w, h := fitWithin(src.Width, src.Height, SafeUpscaledDim/scale)
		src = resample(src, w, h)
		e.logger.Debug().Int("width", w).Int("height", h).Msg("engine: source pre-downscaled")
	}

	out, err := e.reconstruct(ctx, src, scale)
	if err != nil {
		return err
	}

	if out.Width > MaxFinalDim || out.Height > MaxFinalDim {
		w, h := fitWithin(out.Width, out.Height, MaxFinalDim)
		out = resample(out, w, h)
		e.logger.Debug().Int("width", w).Int("height", h).Msg("engine: final ceiling applied")
	}
	if out.Width+out.Height > MaxDimensionSum {
		w, h := fitSum(out.Width, out.Height, MaxDimensionSum)
		out = resample(out, w, h)
		e.logger.Debug().Int("width", w).Int("height", h).Msg("engine: transport ceiling applied")
	}

	if err := encodeJPEG(out, destPath); err != nil {
		return fmt.Errorf("%w: encode result: %v", domain.ErrEngineFailure, err)
	}
	e.logger.Info().
		Int("width", out.Width).
		Int("height", out.Height).
		Str("dest", destPath).
		Msg("engine: upscale complete")
	return nil
}

// reconstruct runs each tile through the model and overlap-adds the results
// into the full output buffer, then normalizes by per-pixel contribution
// count.
func (e *Engine) reconstruct(ctx context.Context, src *Tensor, scale int) (*Tensor, error) {
	out := NewTensor(src.Width*scale, src.Height*scale)
	weights := make([]float32, out.Width*out.Height)

	for _, r := range tileRegions(src.Width, src.Height, e.tileSize, e.tileOverlap) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		enhanced, err := e.model.EnhanceTile(ctx, src.sub(r))
		if err != nil {
			return nil, fmt.Errorf("%w: enhance tile at (%d,%d): %v", domain.ErrEngineFailure, r.X, r.Y, err)
		}
		if enhanced.Width != r.Width*scale || enhanced.Height != r.Height*scale {
			return nil, fmt.Errorf("%w: tile at (%d,%d) came back %dx%d, want %dx%d",
				domain.ErrEngineFailure, r.X, r.Y, enhanced.Width, enhanced.Height, r.Width*scale, r.Height*scale)
		}
		accumulate(out, weights, enhanced, r.X*scale, r.Y*scale)
	}

	normalize(out, weights)
	out.Clamp()
	return out, nil
}

// fitWithin scales (width, height) proportionally so neither axis exceeds
// limit.
func fitWithin(width, height, limit int) (int, int) {
	longest := width
	if height > longest {
		longest = height
	}
	factor := float64(limit) / float64(longest)
	return scaleDim(width, factor), scaleDim(height, factor)
}

// fitSum scales (width, height) proportionally so width+height does not
// exceed limit.
func fitSum(width, height, limit int) (int, int) {
	factor := float64(limit) / float64(width+height)
	return scaleDim(width, factor), scaleDim(height, factor)
}

func scaleDim(dim int, factor float64) int {
	scaled := int(float64(dim) * factor)
	if scaled < 1 {
		return 1
	}
	return scaled
}

func decodeFile(path string) (*Tensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

func encodeJPEG(t *Tensor, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(f, t.ToImage(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
