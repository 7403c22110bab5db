package imageopt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Encoder writes a converted copy of src to dst.
type Encoder interface {
	Encode(ctx context.Context, src, dst string, p Profile) error
}

// WebPEncoder decodes PNG/JPEG with EXIF orientation applied and writes
// WebP. The output appears at dst only once fully written.
type WebPEncoder struct{}

func (WebPEncoder) Encode(ctx context.Context, src, dst string, p Profile) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	opts := &webp.Options{Lossless: p.Lossless, Quality: float32(p.Quality)}
	if err := webp.Encode(tmp, img, opts); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode webp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}
