package engine

import (
	"context"
	"errors"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"upscaler/internal/domain"
)

// replicationModel is the simplest conforming model: every source pixel
// becomes a scale×scale block. Overlapping tiles therefore contribute
// identical values, which makes seam-free reconstruction checkable exactly.
type replicationModel struct {
	scale int
	err   error
}

func (m replicationModel) Scale() int {
	return m.scale
}

func (m replicationModel) EnhanceTile(ctx context.Context, tile *Tensor) (*Tensor, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := NewTensor(tile.Width*m.scale, tile.Height*m.scale)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			for c := 0; c < 3; c++ {
				out.Set(x, y, c, tile.At(x/m.scale, y/m.scale, c))
			}
		}
	}
	return out, nil
}

func gradientTensor(w, h int) *Tensor {
	t := NewTensor(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t.Set(x, y, 0, float32(x)/float32(w))
			t.Set(x, y, 1, float32(y)/float32(h))
			t.Set(x, y, 2, float32(x+y)/float32(w+h))
		}
	}
	return t
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func newTestEngine(t *testing.T, model Model, tileSize, overlap int) *Engine {
	t.Helper()
	e, err := New(Config{Model: model, TileSize: tileSize, TileOverlap: overlap, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return e
}

func TestReconstructMatchesDirectUpscale(t *testing.T) {
	src := gradientTensor(48, 36)
	model := replicationModel{scale: 4}
	e := newTestEngine(t, model, 16, 4)

	out, err := e.reconstruct(context.Background(), src, 4)
	if err != nil {
		t.Fatalf("reconstruct returned error: %v", err)
	}
	if out.Width != 48*4 || out.Height != 36*4 {
		t.Fatalf("output dimensions mismatch: %dx%d", out.Width, out.Height)
	}

	// Overlap-add normalization must reproduce the tile-free result: no seam
	// may leave a residue anywhere, overlap regions included.
	direct, err := model.EnhanceTile(context.Background(), src)
	if err != nil {
		t.Fatalf("direct enhance: %v", err)
	}
	for i := range out.Pix {
		if diff := math.Abs(float64(out.Pix[i] - direct.Pix[i])); diff > 1e-5 {
			t.Fatalf("sample %d diverges by %g after normalization", i, diff)
		}
	}
}

func TestReconstructAnyTilingSameResult(t *testing.T) {
	src := gradientTensor(30, 22)
	model := replicationModel{scale: 4}

	reference, err := model.EnhanceTile(context.Background(), src)
	if err != nil {
		t.Fatalf("direct enhance: %v", err)
	}

	for _, tiling := range []struct{ size, overlap int }{
		{8, 1}, {8, 4}, {16, 2}, {16, 8}, {32, 4},
	} {
		e := newTestEngine(t, model, tiling.size, tiling.overlap)
		out, err := e.reconstruct(context.Background(), src, 4)
		if err != nil {
			t.Fatalf("tiling %+v: %v", tiling, err)
		}
		for i := range out.Pix {
			if diff := math.Abs(float64(out.Pix[i] - reference.Pix[i])); diff > 1e-5 {
				t.Fatalf("tiling %+v: sample %d diverges by %g", tiling, i, diff)
			}
		}
	}
}

func TestUpscaleEndToEnd(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "input.png")
	destPath := filepath.Join(dir, "output.jpg")
	writePNG(t, sourcePath, gradientTensor(48, 36).ToImage())

	e := newTestEngine(t, replicationModel{scale: 4}, 16, 4)
	if err := e.Upscale(context.Background(), sourcePath, destPath); err != nil {
		t.Fatalf("Upscale returned error: %v", err)
	}

	if _, err := os.Stat(sourcePath); !os.IsNotExist(err) {
		t.Fatal("source file must be removed after a successful run")
	}
	f, err := os.Open(destPath)
	if err != nil {
		t.Fatalf("open result: %v", err)
	}
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if format != "jpeg" {
		t.Fatalf("result format mismatch: %q", format)
	}
	if cfg.Width != 48*4 || cfg.Height != 36*4 {
		t.Fatalf("result dimensions mismatch: %dx%d", cfg.Width, cfg.Height)
	}
}

func TestUpscaleRejectsOversizedInput(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "wide.png")
	destPath := filepath.Join(dir, "output.jpg")
	writePNG(t, sourcePath, image.NewNRGBA(image.Rect(0, 0, MaxInputDim+1, 1)))

	e := newTestEngine(t, replicationModel{scale: 4}, 16, 4)
	err := e.Upscale(context.Background(), sourcePath, destPath)
	if !errors.Is(err, domain.ErrInputTooLarge) {
		t.Fatalf("expected ErrInputTooLarge, got %v", err)
	}

	if _, statErr := os.Stat(sourcePath); !os.IsNotExist(statErr) {
		t.Fatal("source file must be removed on rejection too")
	}
	if _, statErr := os.Stat(destPath); !os.IsNotExist(statErr) {
		t.Fatal("no result file may be produced for rejected input")
	}
}

func TestUpscaleModelFailure(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "input.png")
	destPath := filepath.Join(dir, "output.jpg")
	writePNG(t, sourcePath, gradientTensor(20, 20).ToImage())

	e := newTestEngine(t, replicationModel{scale: 4, err: errors.New("weights corrupted")}, 16, 4)
	err := e.Upscale(context.Background(), sourcePath, destPath)
	if !errors.Is(err, domain.ErrEngineFailure) {
		t.Fatalf("expected ErrEngineFailure, got %v", err)
	}
	if _, statErr := os.Stat(sourcePath); !os.IsNotExist(statErr) {
		t.Fatal("source file must be removed when the model fails")
	}
}

func TestUpscaleAppliesCeilings(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "wide.png")
	destPath := filepath.Join(dir, "output.jpg")
	// 2100 wide: the 4× result would exceed the safe intermediate ceiling,
	// forcing a pre-downscale, and the reconstructed 8192-wide output then
	// crosses the final per-axis ceiling as well.
	writePNG(t, sourcePath, image.NewNRGBA(image.Rect(0, 0, 2100, 20)))

	e := newTestEngine(t, replicationModel{scale: 4}, 512, 8)
	if err := e.Upscale(context.Background(), sourcePath, destPath); err != nil {
		t.Fatalf("Upscale returned error: %v", err)
	}

	f, err := os.Open(destPath)
	if err != nil {
		t.Fatalf("open result: %v", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if cfg.Width > MaxFinalDim || cfg.Height > MaxFinalDim {
		t.Fatalf("final dimension ceiling violated: %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Width+cfg.Height > MaxDimensionSum {
		t.Fatalf("transport ceiling violated: %d+%d", cfg.Width, cfg.Height)
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, limit  int
		wantW, wantH int
	}{
		{8192, 76, 6000, 6000, 55},
		{3000, 6000, 6000, 3000, 6000},
		{8400, 80, 2048, 2048, 19},
	}
	for _, tt := range tests {
		gotW, gotH := fitWithin(tt.w, tt.h, tt.limit)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Fatalf("fitWithin(%d,%d,%d) = (%d,%d), want (%d,%d)",
				tt.w, tt.h, tt.limit, gotW, gotH, tt.wantW, tt.wantH)
		}
		if gotW > tt.limit || gotH > tt.limit {
			t.Fatalf("fitWithin exceeded limit: %dx%d > %d", gotW, gotH, tt.limit)
		}
	}
}

func TestFitSum(t *testing.T) {
	for _, dims := range [][2]int{
		{12000, 7200}, // the shape a 3000×1800 source reaches after 4×
		{10001, 1},
		{6000, 6000},
	} {
		w, h := fitSum(dims[0], dims[1], MaxDimensionSum)
		if w+h > MaxDimensionSum {
			t.Fatalf("fitSum(%d,%d) = %d+%d exceeds %d", dims[0], dims[1], w, h, MaxDimensionSum)
		}
		if w < 1 || h < 1 {
			t.Fatalf("fitSum produced degenerate dimensions: %dx%d", w, h)
		}
	}
}

func TestNewRejectsInvalidTiling(t *testing.T) {
	if _, err := New(Config{Model: replicationModel{scale: 4}, TileSize: 16, TileOverlap: 16, Logger: zerolog.Nop()}); err == nil {
		t.Fatal("overlap equal to tile size must be rejected")
	}
	if _, err := New(Config{Logger: zerolog.Nop()}); err == nil {
		t.Fatal("missing model must be rejected")
	}
}
