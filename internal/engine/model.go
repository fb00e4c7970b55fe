package engine

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"upscaler/internal/infra"
)

// Model turns a source tile into an enhanced tile scaled by a fixed factor.
// Implementations must be safe for concurrent use across worker goroutines
// and must not retain the tile buffers they are given. The handle is created
// once at worker startup and passed by reference into every engine
// invocation.
type Model interface {
	// Scale is the fixed enhancement factor applied to each tile.
	Scale() int
	// EnhanceTile returns a clamped [0,1] tile of Scale() times the input's
	// dimensions.
	EnhanceTile(ctx context.Context, tile *Tensor) (*Tensor, error)
}

// ModelOptions controls how the tile model handle is configured.
type ModelOptions struct {
	// BaseURL of the external model server. Empty selects the local
	// interpolation fallback.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// NewModel returns the tile enhancement model handle. With a configured base
// URL it calls the external super-resolution server; without one it falls
// back to deterministic Catmull-Rom interpolation so the worker stays
// operational in local and CI environments.
func NewModel(opts ModelOptions) Model {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		if opts.Logger != nil {
			opts.Logger.Warn().Msg("engine: inference url missing, using interpolation fallback")
		}
		return interpolator{scale: ScaleFactor}
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return &inferenceClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     opts.Logger,
	}
}

// inferenceClient sends tiles to a sidecar model server as PNG and reads the
// enhanced tile back.
type inferenceClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

func (c *inferenceClient) Scale() int {
	return ScaleFactor
}

func (c *inferenceClient) EnhanceTile(ctx context.Context, tile *Tensor) (*Tensor, error) {
	var body bytes.Buffer
	if err := png.Encode(&body, tile.ToImage()); err != nil {
		return nil, fmt.Errorf("encode tile: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/enhance", &body)
	if err != nil {
		return nil, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode enhanced tile: %w", err)
	}
	out := FromImage(img)
	if out.Width != tile.Width*ScaleFactor || out.Height != tile.Height*ScaleFactor {
		return nil, fmt.Errorf("enhanced tile is %dx%d, want %dx%d",
			out.Width, out.Height, tile.Width*ScaleFactor, tile.Height*ScaleFactor)
	}
	out.Clamp()
	return out, nil
}

// interpolator upscales tiles with Catmull-Rom resampling. Deterministic and
// dependency-free; not a substitute for the trained model in production.
type interpolator struct {
	scale int
}

func (m interpolator) Scale() int {
	return m.scale
}

func (m interpolator) EnhanceTile(ctx context.Context, tile *Tensor) (*Tensor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := resample(tile, tile.Width*m.scale, tile.Height*m.scale)
	out.Clamp()
	return out, nil
}
