// Package imagestore saves uploaded shop and product images to local disk.
package imagestore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/shahdolbazaar/marketplace-go-app/internal/apperr"
	"github.com/shahdolbazaar/marketplace-go-app/internal/metrics"
)

// Store saves an image and returns its public URL.
type Store interface {
	Save(ctx context.Context, r io.Reader, filename, folder string) (string, error)
}

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var folderPattern = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// ErrTooLarge is returned when an upload exceeds MaxBytes.
var ErrTooLarge = errors.New("image too large")

// LocalStore writes images under Dir/<folder>/<uuid><ext> and serves them
// from PublicBaseURL/uploads/<folder>/.
type LocalStore struct {
	Dir           string
	PublicBaseURL string
	MaxBytes      int64
	Metrics       *metrics.AppMetrics
	Logger        *zap.Logger
}

func (s *LocalStore) Save(ctx context.Context, r io.Reader, filename, folder string) (string, error) {
	const op = "imagestore.Save"

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		s.count(ctx, "rejected")
		return "", apperr.Validation(op, map[string]string{"image": "must be a jpg, png, gif or webp file"})
	}
	if !folderPattern.MatchString(folder) {
		s.count(ctx, "rejected")
		return "", apperr.Validation(op, map[string]string{"folder": "is invalid"})
	}

	dir := filepath.Join(s.Dir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", s.fail(ctx, op, err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", s.fail(ctx, op, err)
	}

	src := r
	if s.MaxBytes > 0 {
		src = io.LimitReader(r, s.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.MaxBytes > 0 && n > s.MaxBytes {
		_ = os.Remove(path)
		s.count(ctx, "rejected")
		return "", apperr.Validation(op, map[string]string{"image": ErrTooLarge.Error()})
	}
	if err != nil {
		_ = os.Remove(path)
		return "", s.fail(ctx, op, err)
	}

	s.count(ctx, "stored")
	return strings.TrimRight(s.PublicBaseURL, "/") + "/uploads/" + folder + "/" + name, nil
}

func (s *LocalStore) fail(ctx context.Context, op string, err error) error {
	if s.Logger != nil {
		s.Logger.Error("upload failed", zap.Error(err))
	}
	s.count(ctx, "failed")
	return &apperr.Error{Op: op, Kind: apperr.ErrUpstream, Message: "upload failed", Err: err}
}

func (s *LocalStore) count(ctx context.Context, outcome string) {
	if s.Metrics != nil {
		s.Metrics.Add(ctx, s.Metrics.ImageUploads, attribute.String("outcome", outcome))
	}
}
