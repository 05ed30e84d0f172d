package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wizzmo-be/internal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSaveImageWritesThumbnail(t *testing.T) {
	root := t.TempDir()
	s := NewLocalStorage(root, "http://localhost:3000/", 1<<20, 1<<20)

	stored, err := s.SaveReader(BucketImages, uuid.New(), "photo.PNG", bytes.NewReader(pngBytes(t, 800, 400)))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.URL, "http://localhost:3000/uploads/images/"))
	assert.True(t, strings.HasSuffix(stored.URL, ".png"))
	require.NotEmpty(t, stored.ThumbnailURL)

	thumbPath := filepath.Join(root, "images", filepath.Base(stored.ThumbnailURL))
	f, err := os.Open(thumbPath)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.LessOrEqual(t, cfg.Width, thumbnailSize)
	assert.LessOrEqual(t, cfg.Height, thumbnailSize)
}

func TestSaveAudioSkipsThumbnail(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), "http://x", 1<<20, 1<<20)

	stored, err := s.SaveReader(BucketAudio, uuid.New(), "voice.m4a", strings.NewReader("not really audio"))
	require.NoError(t, err)
	assert.Empty(t, stored.ThumbnailURL)
	assert.Equal(t, int64(len("not really audio")), stored.Size)
}

func TestSaveRejectsUnsupportedType(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), "http://x", 1<<20, 1<<20)

	_, err := s.SaveReader(BucketAudio, uuid.New(), "script.sh", strings.NewReader("echo"))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestSaveRejectsOversizedFile(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), "http://x", 8, 8)

	_, err := s.SaveReader(BucketAvatars, uuid.New(), "me.png", bytes.NewReader(make([]byte, 9)))
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}
