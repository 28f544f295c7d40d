package upscale

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/example/studybot/internal/logger"
)

// MaxImageSize is the largest photo accepted for upscaling
const MaxImageSize = 10 << 20

// Size is an image's pixel dimensions
type Size struct {
	Width  int
	Height int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Result is an upscaled image held in memory, with before/after sizes.
// A zero Size means the header could not be decoded.
type Result struct {
	Image  []byte
	Before Size
	After  Size
}

// Service runs the download → upscale → download flow in a scratch
// directory that is removed before Process returns.
type Service struct {
	up      Upscaler
	client  *http.Client
	tempDir string
	log     *logger.Logger
}

// NewService creates an upscale service. An empty tempDir uses os.TempDir.
func NewService(up Upscaler, tempDir string, log *logger.Logger) *Service {
	return &Service{
		up:      up,
		client:  &http.Client{Timeout: 60 * time.Second},
		tempDir: tempDir,
		log:     log.With("component", "upscale"),
	}
}

// Process upscales the image found at sourceURL
func (s *Service) Process(ctx context.Context, sourceURL string) (*Result, error) {
	if s.tempDir != "" {
		if err := os.MkdirAll(s.tempDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create temp dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(s.tempDir, "upscale-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.log.Warn("Failed to remove temp dir", "dir", dir, "error", err)
		}
	}()

	id := uuid.New().String()
	input := filepath.Join(dir, id+".jpg")
	if err := s.download(ctx, sourceURL, input); err != nil {
		return nil, fmt.Errorf("failed to download source: %w", err)
	}

	outURL, err := s.up.Upscale(ctx, input)
	if err != nil {
		s.log.Error("Upscale failed", "error", err)
		return nil, err
	}

	output := filepath.Join(dir, id+"_upscaled"+filepath.Ext(outURL))
	if err := s.download(ctx, outURL, output); err != nil {
		return nil, fmt.Errorf("failed to download result: %w", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}

	res := &Result{
		Image:  data,
		Before: dimensions(input),
		After:  dimensions(output),
	}
	s.log.Info("Image upscaled", "before", res.Before.String(), "after", res.After.String())
	return res, nil
}

func (s *Service) download(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	n, err := io.Copy(f, io.LimitReader(resp.Body, MaxImageSize*Scale*Scale+1))
	if err != nil {
		f.Close()
		return err
	}
	if n > MaxImageSize*Scale*Scale {
		f.Close()
		return fmt.Errorf("image too large")
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// dimensions reads only the image header
func dimensions(path string) Size {
	f, err := os.Open(path)
	if err != nil {
		return Size{}
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Size{}
	}
	return Size{Width: cfg.Width, Height: cfg.Height}
}
