// Package imagestore stores uploaded product images on local disk,
// recompressing large ones.
package imagestore

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/util"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Options configures a Store
type Options struct {
	Dir             string
	PublicBaseURL   string
	MaxBytes        int64
	CompressAbove   int64
	MaxWidth        int
	DefaultCategory string
}

// Result describes a stored image
type Result struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Category string `json:"category"`
	Size     int64  `json:"size"`
}

// Store writes images below Options.Dir/<category>/
type Store struct {
	opts   Options
	now    func() time.Time
	logger *zap.Logger
}

// New creates an image store, filling zero options with defaults
func New(opts Options) *Store {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 5 << 20
	}
	if opts.CompressAbove <= 0 {
		opts.CompressAbove = 1 << 20
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 1920
	}
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = "combos"
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Store{opts: opts, now: time.Now, logger: util.Named("images")}
}

// Dir returns the root directory images are written to
func (s *Store) Dir() string { return s.opts.Dir }

// MaxBytes is the largest accepted upload
func (s *Store) MaxBytes() int64 { return s.opts.MaxBytes }

// Upload validates and stores one image. declaredType is the client's
// Content-Type, used only when the content cannot be sniffed.
func (s *Store) Upload(ctx context.Context, filename string, data []byte, declaredType, category string) (*Result, error) {
	_, span := util.StartSpan(ctx, "ImageStore.Upload")
	defer span.End()

	if len(data) == 0 {
		return nil, apperr.Validation("no file received")
	}
	if int64(len(data)) > s.opts.MaxBytes {
		return nil, apperr.Validation("file is too large, maximum is %dMB", s.opts.MaxBytes>>20)
	}

	mimeType := detectType(data, declaredType)
	if !allowedTypes[mimeType] {
		return nil, apperr.Validation("only image files are allowed (JPG, PNG, WEBP, GIF), got %s", mimeType)
	}

	category = cleanSegment(category)
	if category == "" {
		category = s.opts.DefaultCategory
	}
	name := cleanName(filename)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		base = "image"
	}

	if int64(len(data)) > s.opts.CompressAbove && mimeType != "image/gif" {
		compressed, err := s.compress(data)
		if err != nil {
			return nil, err
		}
		if len(compressed) < len(data) {
			util.ImageBytesSaved.Add(float64(len(data) - len(compressed)))
			s.logger.Info("Image recompressed",
				zap.String("file", filename),
				zap.Int("original_bytes", len(data)),
				zap.Int("compressed_bytes", len(compressed)))
			data = compressed
			ext = ".jpg"
		}
	}

	stored := base + "-" + strconv.FormatInt(s.now().UnixMilli(), 10) + ext
	dir := filepath.Join(s.opts.Dir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Collaborator(err, "failed to create image directory", "check permissions of "+s.opts.Dir)
	}
	if err := os.WriteFile(filepath.Join(dir, stored), data, 0o644); err != nil {
		return nil, apperr.Collaborator(err, "failed to save image", "check free disk space")
	}

	s.logger.Info("Image stored", zap.String("category", category), zap.String("filename", stored), zap.Int("bytes", len(data)))
	return &Result{
		Success:  true,
		URL:      s.opts.PublicBaseURL + "/" + category + "/" + stored,
		Filename: stored,
		Category: category,
		Size:     int64(len(data)),
	}, nil
}

// compress scales the image down to MaxWidth and re-encodes it as JPEG,
// lowering quality by 10 from 80 until it fits CompressAbove or reaches 10
func (s *Store) compress(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperr.Validation("could not decode image: %v", err)
	}
	if img.Bounds().Dx() > s.opts.MaxWidth {
		img = imaging.Resize(img, s.opts.MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	for quality := 80; ; quality -= 10 {
		buf.Reset()
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, apperr.Validation("could not encode image: %v", err)
		}
		if int64(buf.Len()) <= s.opts.CompressAbove || quality <= 10 {
			break
		}
	}
	return buf.Bytes(), nil
}

func detectType(data []byte, declared string) string {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	detected := http.DetectContentType(head)
	if detected == "application/octet-stream" && declared != "" {
		detected = declared
	}
	if i := strings.Index(detected, ";"); i >= 0 {
		detected = detected[:i]
	}
	return strings.ToLower(strings.TrimSpace(detected))
}

var (
	whitespace  = regexp.MustCompile(`\s+`)
	invalidName = regexp.MustCompile(`[^a-z0-9.-]`)
	invalidDir  = regexp.MustCompile(`[^a-z0-9-]`)
)

// cleanName lowercases, turns whitespace into '-' and drops anything
// outside [a-z0-9.-]
func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = whitespace.ReplaceAllString(strings.ToLower(name), "-")
	return strings.TrimLeft(invalidName.ReplaceAllString(name, ""), ".")
}

func cleanSegment(s string) string {
	s = whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return invalidDir.ReplaceAllString(s, "")
}
