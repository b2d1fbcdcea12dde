// Package media stores uploaded project images on local disk.
//
// An upload goes through Store.Save: its declared type and size are checked
// against the configured limits, it is written under a generated unique name
// and then recompressed in place by Store.Compress. Compression writes into
// a temporary sibling file and renames it over the original, so the
// canonical path never exposes a partially written image.
package media

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP decoder
)

var (
	ErrNoFile          = errors.New("media: no file uploaded")
	ErrUnsupportedType = errors.New("media: unsupported file type")
	ErrTooLarge        = errors.New("media: file too large")
	ErrInvalidImage    = errors.New("media: file is not a decodable image")
	ErrNotFound        = errors.New("media: file not found")
)

// DefaultAllowedTypes are the accepted image MIME types. image/avif passes
// the filter but cannot be decoded, so such uploads fail with
// ErrInvalidImage during compression.
var DefaultAllowedTypes = []string{
	"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp", "image/avif",
}

// Options configures a Store. Zero values take the defaults below.
type Options struct {
	Dir          string // filesystem directory, default uploads/projects
	PublicPrefix string // URL prefix of stored files, default /uploads/projects/
	FilePrefix   string // generated name prefix, default "project"
	MaxBytes     int64  // default 50 MiB
	MaxDimension int    // longest side after compression, default 800
	Quality      int    // JPEG quality, default 80
	AllowedTypes []string
}

const (
	defaultDir          = "uploads/projects"
	defaultPublicPrefix = "/uploads/projects/"
	defaultFilePrefix   = "project"
	defaultMaxBytes     = 50 << 20
	defaultMaxDimension = 800
	defaultQuality      = 80
)

// Upload describes one received file.
type Upload struct {
	Filename    string // client-side name, only its extension is kept
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Stored is the result of a successful Save.
type Stored struct {
	Name       string // generated file name
	Path       string // filesystem path
	PublicPath string // path recorded on the entity and served to clients
}

// Store manages the upload directory.
type Store struct {
	opts    Options
	allowed map[string]struct{}

	now    func() time.Time
	rand   func() int64
	encode func(io.Writer, image.Image, imaging.Format, ...imaging.EncodeOption) error
}

// NewStore creates the upload directory if needed.
func NewStore(opts Options) (*Store, error) {
	if opts.Dir == "" {
		opts.Dir = defaultDir
	}
	if opts.PublicPrefix == "" {
		opts.PublicPrefix = defaultPublicPrefix
	}
	if !strings.HasSuffix(opts.PublicPrefix, "/") {
		opts.PublicPrefix += "/"
	}
	if opts.FilePrefix == "" {
		opts.FilePrefix = defaultFilePrefix
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = defaultMaxDimension
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = defaultQuality
	}
	if len(opts.AllowedTypes) == 0 {
		opts.AllowedTypes = DefaultAllowedTypes
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create upload dir: %w", err)
	}

	allowed := make(map[string]struct{}, len(opts.AllowedTypes))
	for _, t := range opts.AllowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return &Store{
		opts:    opts,
		allowed: allowed,
		now:     time.Now,
		rand:    func() int64 { return rand.Int64N(1_000_000_000) },
		encode:  imaging.Encode,
	}, nil
}

// Dir returns the filesystem directory holding stored files.
func (s *Store) Dir() string { return s.opts.Dir }

// MaxBytes returns the per-file size limit.
func (s *Store) MaxBytes() int64 { return s.opts.MaxBytes }

// Check rejects an upload whose declared type or size is not acceptable.
func (s *Store) Check(u Upload) error {
	ct := strings.ToLower(strings.TrimSpace(u.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if _, ok := s.allowed[ct]; !ok {
		return ErrUnsupportedType
	}
	if u.Size > s.opts.MaxBytes {
		return ErrTooLarge
	}
	return nil
}

// Save validates u, writes it under a new unique name and compresses it.
// Nothing is left on disk when an error is returned.
func (s *Store) Save(u Upload) (Stored, error) {
	if u.Open == nil {
		uploadsTotal.WithLabelValues(resultRejected).Inc()
		return Stored{}, ErrNoFile
	}
	if err := s.Check(u); err != nil {
		uploadsTotal.WithLabelValues(resultRejected).Inc()
		return Stored{}, err
	}

	name := s.newName(u.Filename)
	path := filepath.Join(s.opts.Dir, name)
	if err := s.write(path, u); err != nil {
		_ = os.Remove(path)
		if errors.Is(err, ErrTooLarge) {
			uploadsTotal.WithLabelValues(resultRejected).Inc()
		} else {
			uploadsTotal.WithLabelValues(resultFailed).Inc()
		}
		return Stored{}, err
	}

	start := time.Now()
	if err := s.Compress(path); err != nil {
		_ = os.Remove(path)
		uploadsTotal.WithLabelValues(resultFailed).Inc()
		return Stored{}, err
	}
	compressSeconds.Observe(time.Since(start).Seconds())
	uploadsTotal.WithLabelValues(resultStored).Inc()

	return Stored{Name: name, Path: path, PublicPath: s.opts.PublicPrefix + name}, nil
}

func (s *Store) write(path string, u Upload) error {
	src, err := u.Open()
	if err != nil {
		return fmt.Errorf("media: open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("media: create file: %w", err)
	}
	n, err := io.Copy(dst, io.LimitReader(src, s.opts.MaxBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("media: write file: %w", err)
	}
	if n > s.opts.MaxBytes {
		return ErrTooLarge
	}
	return nil
}

// newName builds "<prefix>-<unix millis>-<random><ext>".
func (s *Store) newName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if !safeExt(ext) {
		ext = ""
	}
	return fmt.Sprintf("%s-%d-%d%s", s.opts.FilePrefix, s.now().UnixMilli(), s.rand(), ext)
}

func safeExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 8 {
		return false
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// Compress downsizes the image at path so that neither side exceeds the
// configured dimension and re-encodes it, replacing the file atomically.
// Images are never enlarged. JPEG output uses the configured quality; PNG
// and GIF keep their format; formats without a pure-Go encoder (WebP) are
// written as JPEG under the same name. The temporary file is removed on
// every failure path.
func (s *Store) Compress(path string) (err error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	img = s.fit(img)

	format, ferr := imaging.FormatFromFilename(path)
	if ferr != nil || (format != imaging.PNG && format != imaging.GIF) {
		format = imaging.JPEG
	}

	ext := filepath.Ext(path)
	tmp, err := os.CreateTemp(filepath.Dir(path), strings.TrimSuffix(filepath.Base(path), ext)+"_temp*"+ext)
	if err != nil {
		return fmt.Errorf("media: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err = s.encode(tmp, img, format, imaging.JPEGQuality(s.opts.Quality)); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("media: encode: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("media: close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("media: chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("media: replace file: %w", err)
	}
	return nil
}

func (s *Store) fit(img image.Image) image.Image {
	b := img.Bounds()
	limit := s.opts.MaxDimension
	if b.Dx() <= limit && b.Dy() <= limit {
		return img
	}
	return imaging.Fit(img, limit, limit, imaging.Lanczos)
}

// PathFor maps a stored public path (or a bare file name) to its location
// inside the upload directory. Directory components are discarded so the
// result never escapes the directory.
func (s *Store) PathFor(publicPath string) string {
	name := filepath.Base(filepath.FromSlash(strings.TrimPrefix(publicPath, s.opts.PublicPrefix)))
	return filepath.Join(s.opts.Dir, name)
}

// Resolve returns the filesystem path of a stored file by name.
func (s *Store) Resolve(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return "", ErrNotFound
	}
	path := s.PathFor(filename)
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// Remove deletes a stored file identified by its public path. A missing file
// is reported as ErrNotFound; callers treat removal as best effort.
func (s *Store) Remove(publicPath string) error {
	if strings.TrimSpace(publicPath) == "" {
		return ErrNotFound
	}
	err := os.Remove(s.PathFor(publicPath))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err == nil {
		removalsTotal.Inc()
	}
	return err
}
