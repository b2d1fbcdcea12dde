package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(Options{Dir: filepath.Join(t.TempDir(), "uploads", "projects")})
	require.NoError(t, err)
	return s
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func upload(name, ct string, data []byte) Upload {
	return Upload{
		Filename:    name,
		ContentType: ct,
		Size:        int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	es, err := os.ReadDir(dir)
	require.NoError(t, err)
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.Name())
	}
	return out
}

func TestNewStore_CreatesDirAndDefaults(t *testing.T) {
	s := newTestStore(t)
	fi, err := os.Stat(s.Dir())
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.Equal(t, int64(50<<20), s.MaxBytes())
	assert.Equal(t, "/uploads/projects/", s.opts.PublicPrefix)
	assert.Equal(t, 800, s.opts.MaxDimension)
	assert.Equal(t, 80, s.opts.Quality)
}

func TestSave_ResizesAndNamesUniquely(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Save(upload("Photo.PNG", "image/png", pngBytes(t, 1600, 400)))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^project-\d+-\d+\.png$`), got.Name)
	assert.Equal(t, "/uploads/projects/"+got.Name, got.PublicPath)
	assert.Equal(t, filepath.Join(s.Dir(), got.Name), got.Path)

	img, err := imaging.Open(got.Path)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())

	// only the final file remains, no temp leftovers
	assert.Equal(t, []string{got.Name}, dirEntries(t, s.Dir()))

	other, err := s.Save(upload("Photo.PNG", "image/png", pngBytes(t, 10, 10)))
	require.NoError(t, err)
	assert.NotEqual(t, got.Name, other.Name)
}

func TestSave_DoesNotEnlarge(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Save(upload("a.jpg", "image/jpeg", jpegBytes(t, 120, 60)))
	require.NoError(t, err)

	img, err := imaging.Open(got.Path)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())
}

func TestSave_WebPNameIsWrittenAsJPEG(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Save(upload("a.webp", "image/webp", jpegBytes(t, 900, 900)))
	require.NoError(t, err)
	assert.Equal(t, ".webp", filepath.Ext(got.Name))

	f, err := os.Open(got.Path)
	require.NoError(t, err)
	defer f.Close()
	_, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestSave_PNGAndGIFKeepTheirFormat(t *testing.T) {
	s := newTestStore(t)
	for _, tc := range []struct{ name, ct, want string }{
		{"a.png", "image/png", "png"},
		{"a.gif", "image/gif", "gif"},
		{"a.jpeg", "image/jpeg", "jpeg"},
	} {
		got, err := s.Save(upload(tc.name, tc.ct, pngBytes(t, 1000, 500)))
		require.NoError(t, err)

		f, err := os.Open(got.Path)
		require.NoError(t, err)
		cfg, format, err := image.DecodeConfig(f)
		_ = f.Close()
		require.NoError(t, err)
		assert.Equal(t, tc.want, format, tc.name)
		assert.Equal(t, 800, cfg.Width, tc.name)
		assert.Equal(t, 400, cfg.Height, tc.name)
	}
}

func TestSave_DeterministicName(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	s.rand = func() int64 { return 42 }

	got, err := s.Save(upload("x.GIF", "image/gif", pngBytes(t, 4, 4)))
	require.NoError(t, err)
	assert.Equal(t, "project-1700000000000-42.gif", got.Name)

	// unsafe extensions are dropped
	assert.Equal(t, "project-1700000000000-42", s.newName("evil.p/hp"))
	assert.Equal(t, "project-1700000000000-42", s.newName("noext"))
}

func TestSave_Rejections(t *testing.T) {
	tests := []struct {
		name string
		up   Upload
		want error
	}{
		{"no file", Upload{Filename: "a.png", ContentType: "image/png"}, ErrNoFile},
		{"wrong type", upload("a.pdf", "application/pdf", []byte("%PDF")), ErrUnsupportedType},
		{"declared too large", Upload{Filename: "a.png", ContentType: "image/png", Size: 51 << 20, Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(nil)), nil
		}}, ErrTooLarge},
		{"not an image", upload("a.png", "image/png", []byte("definitely not a png")), ErrInvalidImage},
		{"avif cannot be decoded", upload("a.avif", "image/avif", []byte("\x00\x00\x00\x1cftypavif")), ErrInvalidImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			_, err := s.Save(tt.up)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, dirEntries(t, s.Dir()))
		})
	}
}

func TestSave_StreamLargerThanLimit(t *testing.T) {
	s, err := NewStore(Options{Dir: t.TempDir(), MaxBytes: 16})
	require.NoError(t, err)

	up := upload("a.png", "image/png", bytes.Repeat([]byte("x"), 64))
	up.Size = 1 // lying client
	_, err = s.Save(up)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Empty(t, dirEntries(t, s.Dir()))
}

func TestSave_OpenError(t *testing.T) {
	s := newTestStore(t)
	up := upload("a.png", "image/png", nil)
	up.Open = func() (io.ReadCloser, error) { return nil, errors.New("boom") }
	_, err := s.Save(up)
	assert.Error(t, err)
	assert.Empty(t, dirEntries(t, s.Dir()))
}

func TestCompress_EncodeFailureCleansTemp(t *testing.T) {
	s := newTestStore(t)
	orig := pngBytes(t, 1000, 10)
	path := filepath.Join(s.Dir(), "keep.png")
	require.NoError(t, os.WriteFile(path, orig, 0o644))

	s.encode = func(w io.Writer, _ image.Image, _ imaging.Format, _ ...imaging.EncodeOption) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("disk full")
	}
	err := s.Compress(path)
	require.Error(t, err)

	// the canonical file is untouched and no temp file survives
	assert.Equal(t, []string{"keep.png"}, dirEntries(t, s.Dir()))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, orig, b)
}

func TestRemoveAndResolve(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Save(upload("a.png", "image/png", pngBytes(t, 5, 5)))
	require.NoError(t, err)

	p, err := s.Resolve(got.Name)
	require.NoError(t, err)
	assert.Equal(t, got.Path, p)

	for _, bad := range []string{"", ".", "..", "../secret", "missing.png"} {
		_, err := s.Resolve(bad)
		assert.ErrorIs(t, err, ErrNotFound, bad)
	}

	require.NoError(t, s.Remove(got.PublicPath))
	_, err = os.Stat(got.Path)
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, s.Remove(got.PublicPath), ErrNotFound)
	assert.ErrorIs(t, s.Remove(""), ErrNotFound)
}

func TestPathFor_StaysInsideDir(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, filepath.Join(s.Dir(), "a.png"), s.PathFor("/uploads/projects/a.png"))
	assert.Equal(t, filepath.Join(s.Dir(), "a.png"), s.PathFor("a.png"))
	assert.Equal(t, filepath.Join(s.Dir(), "passwd"), s.PathFor("/uploads/projects/../../etc/passwd"))
}

func TestCheck_ContentTypeParams(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Check(Upload{ContentType: "IMAGE/JPEG; charset=binary", Size: 10}))
	assert.ErrorIs(t, s.Check(Upload{ContentType: "text/plain", Size: 10}), ErrUnsupportedType)
}
