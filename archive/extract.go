package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/taigrr/colorhash"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// IsZip reports whether name has a zip extension.
func IsZip(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".zip")
}

// openZip opens src on fsys. The caller closes the returned file.
func openZip(fsys afero.Fs, src string) (*zip.Reader, afero.File, error) {
	f, err := fsys.Open(src)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		if errors.Is(err, zip.ErrFormat) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotZip, src)
		}
		return nil, nil, err
	}
	return zr, f, nil
}

// entryName returns the slash separated path of a zip entry relative to the
// extraction directory, or ErrUnsafePath. Backslashes written by some
// Windows tools are treated as separators.
func entryName(name string) (string, error) {
	clean := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(clean, "/") || filepath.VolumeName(clean) != "" || (len(clean) > 1 && clean[1] == ':') {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	clean = path.Clean(clean)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return clean, nil
}

// hashBuckets is the size of the color hash space names are folded into
// before being spread over the workers.
const hashBuckets = 1000

func bucketOf(name string, workers int) int {
	b := int(colorhash.HashString(name)%hashBuckets) % workers
	if b < 0 {
		b += workers
	}
	return b
}

// Extract unpacks the zip src into dest, which is removed first. Entries are
// split into workers buckets by a hash of their name and each bucket is
// extracted by its own goroutine with its own archive handle.
func Extract(ctx context.Context, fsys afero.Fs, src, dest string, workers int, logger *zap.Logger) error {
	if !IsZip(src) {
		return fmt.Errorf("%w: %s", ErrNotZip, src)
	}
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.With(zap.String("archive", src), zap.String("dest", dest))

	zr, f, err := openZip(fsys, src)
	if err != nil {
		return err
	}
	buckets := make([][]int, workers)
	for i, zf := range zr.File {
		if _, err := entryName(zf.Name); err != nil {
			f.Close()
			return err
		}
		b := bucketOf(zf.Name, workers)
		buckets[b] = append(buckets[b], i)
	}
	entries := len(zr.File)
	f.Close()

	if err := fsys.RemoveAll(dest); err != nil {
		return err
	}
	if err := fsys.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		g.Go(func() error {
			return extractBucket(gctx, fsys, src, dest, bucket)
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("extraction failed", zap.Error(err))
		return err
	}
	log.Info("archive extracted", zap.Int("entries", entries), zap.Int("workers", workers))
	return nil
}

func extractBucket(ctx context.Context, fsys afero.Fs, src, dest string, bucket []int) error {
	zr, f, err := openZip(fsys, src)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, i := range bucket {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := extractFile(fsys, zr.File[i], dest); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(fsys afero.Fs, zf *zip.File, dest string) error {
	name, err := entryName(zf.Name)
	if err != nil {
		return err
	}
	target := filepath.Join(dest, filepath.FromSlash(name))
	if zf.FileInfo().IsDir() || strings.HasSuffix(zf.Name, "/") {
		return fsys.MkdirAll(target, 0o755)
	}
	if err := fsys.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", zf.Name, err)
	}
	defer rc.Close()

	out, err := fsys.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extracting %s: %w", zf.Name, err)
	}
	return out.Close()
}
