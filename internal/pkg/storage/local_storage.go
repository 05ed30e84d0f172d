package storage

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wizzmo-be/internal/pkg/apperror"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

type Bucket string

const (
	BucketAvatars Bucket = "avatars"
	BucketAudio   Bucket = "audio"
	BucketImages  Bucket = "images"

	thumbnailSize = 300
)

var allowedExt = map[Bucket][]string{
	BucketAvatars: {".jpg", ".jpeg", ".png", ".webp"},
	BucketAudio:   {".m4a", ".mp3", ".aac", ".wav", ".ogg", ".caf"},
	BucketImages:  {".jpg", ".jpeg", ".png", ".gif", ".webp"},
}

type StoredFile struct {
	URL          string
	ThumbnailURL string
	Size         int64
}

type IStorage interface {
	Save(bucket Bucket, owner uuid.UUID, file *multipart.FileHeader) (*StoredFile, error)
	SaveReader(bucket Bucket, owner uuid.UUID, filename string, r io.Reader) (*StoredFile, error)
}

// LocalStorage writes uploads under root and serves them from baseURL + "/uploads".
type LocalStorage struct {
	root    string
	baseURL string
	maxSize map[Bucket]int64
}

func NewLocalStorage(root, baseURL string, maxAvatar, maxMedia int64) *LocalStorage {
	return &LocalStorage{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: map[Bucket]int64{
			BucketAvatars: maxAvatar,
			BucketAudio:   maxMedia,
			BucketImages:  maxMedia,
		},
	}
}

func (s *LocalStorage) Save(bucket Bucket, owner uuid.UUID, file *multipart.FileHeader) (*StoredFile, error) {
	if limit := s.maxSize[bucket]; limit > 0 && file.Size > limit {
		return nil, apperror.Validation(fmt.Sprintf("file too large (max %d bytes)", limit))
	}
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return s.SaveReader(bucket, owner, file.Filename, src)
}

func (s *LocalStorage) SaveReader(bucket Bucket, owner uuid.UUID, filename string, r io.Reader) (*StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !extAllowed(bucket, ext) {
		return nil, apperror.Validation(fmt.Sprintf("unsupported %s file type %q", bucket, ext))
	}

	limit := s.maxSize[bucket]
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, apperror.Validation(fmt.Sprintf("file too large (max %d bytes)", limit))
	}

	dir := filepath.Join(s.root, string(bucket))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s_%d_%s", owner.String(), time.Now().UnixNano(), uuid.NewString()[:8])
	if err := os.WriteFile(filepath.Join(dir, name+ext), data, 0644); err != nil {
		return nil, err
	}

	stored := &StoredFile{URL: s.publicURL(bucket, name+ext), Size: int64(len(data))}

	if bucket != BucketAudio {
		// Formats without a registered decoder (webp) are kept without a thumbnail.
		if thumb, ok := thumbnail(data); ok {
			if err := os.WriteFile(filepath.Join(dir, name+"_thumb.jpg"), thumb, 0644); err == nil {
				stored.ThumbnailURL = s.publicURL(bucket, name+"_thumb.jpg")
			}
		}
	}
	return stored, nil
}

func (s *LocalStorage) publicURL(bucket Bucket, name string) string {
	return fmt.Sprintf("%s/uploads/%s/%s", s.baseURL, bucket, name)
}

func extAllowed(bucket Bucket, ext string) bool {
	for _, e := range allowedExt[bucket] {
		if e == ext {
			return true
		}
	}
	return false
}

func thumbnail(data []byte) ([]byte, bool) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	thumb := resize.Thumbnail(thumbnailSize, thumbnailSize, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}
