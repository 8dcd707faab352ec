// Package fileinfo computes the digests and file type of sample files.
package fileinfo

import (
	"context"
	"crypto/md5" //nolint:gosec // md5 is a lookup key, not a security control
	"crypto/sha1" //nolint:gosec // sha1 is a lookup key, not a security control
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/glaslos/ssdeep"

	"github.com/custodia-labs/specimen/internal/core/domain"
	"github.com/custodia-labs/specimen/internal/core/ports/driven"
	"github.com/custodia-labs/specimen/internal/logger"
)

// Ensure Inspector implements the interface.
var _ driven.FileInspector = (*Inspector)(nil)

// Inspector reads a file once for its cryptographic digests and checksum,
// then derives its fuzzy hash and MIME type.
type Inspector struct{}

// NewInspector creates a new file inspector.
func NewInspector() *Inspector {
	return &Inspector{}
}

// Inspect describes the regular file at path. The returned sample has no
// tags and no creation time. Returns domain.ErrNotFound if path is missing
// or is not a regular file.
func (i *Inspector) Inspect(ctx context.Context, path string) (*domain.Sample, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", domain.ErrNotFound, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var (
		md5h    = md5.New() //nolint:gosec // lookup key
		sha1h   = sha1.New() //nolint:gosec // lookup key
		sha256h = sha256.New()
		sha512h = sha512.New()
		crc     = crc32.NewIEEE()
	)
	w := io.MultiWriter(md5h, sha1h, sha256h, sha512h, crc)
	if _, err := io.Copy(w, contextReader{ctx: ctx, r: f}); err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}

	sample := &domain.Sample{
		Name:   filepath.Base(path),
		Size:   info.Size(),
		MD5:    hex.EncodeToString(md5h.Sum(nil)),
		SHA1:   hex.EncodeToString(sha1h.Sum(nil)),
		SHA256: hex.EncodeToString(sha256h.Sum(nil)),
		SHA512: hex.EncodeToString(sha512h.Sum(nil)),
		CRC32:  fmt.Sprintf("%08X", crc.Sum32()),
	}

	if fuzzy, err := ssdeep.FuzzyFilename(path); err == nil {
		sample.SSDeep = fuzzy
	} else {
		logger.Debug("no ssdeep hash for %s: %v", path, err)
	}

	if mtype, err := mimetype.DetectFile(path); err == nil {
		sample.Type = mtype.String()
	} else {
		logger.Debug("no mime type for %s: %v", path, err)
	}

	return sample, nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
