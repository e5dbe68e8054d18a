package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinxiguild/internal/db"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	ErrMediaMissing     = errors.New("media file is missing")
	ErrMediaUnsupported = errors.New("media type is not supported")
)

var allowedMediaExtensions = map[string]string{
	".jpg":  MediaTypeImage,
	".jpeg": MediaTypeImage,
	".png":  MediaTypeImage,
	".gif":  MediaTypeImage,
	".webp": MediaTypeImage,
	".bmp":  MediaTypeImage,
	".mp4":  MediaTypeVideo,
	".webm": MediaTypeVideo,
	".mov":  MediaTypeVideo,
}

// MediaService 保存攻略附带的图片与视频，返回可直接用于创建攻略的媒体描述。
type MediaService struct {
	dir     string
	baseURL string
	now     func() time.Time
}

// NewMediaService 构造 MediaService，dir 为落盘目录，baseURL 为对外访问前缀。
func NewMediaService(dir, baseURL string) *MediaService {
	if strings.TrimSpace(dir) == "" {
		dir = "web/static/uploads"
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "/static/uploads"
	}
	return &MediaService{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

// Save 校验类型与大小后写入磁盘；图片会解析宽高。
func (s *MediaService) Save(header *multipart.FileHeader) (*db.MediaFile, error) {
	if header == nil {
		return nil, ErrMediaMissing
	}

	kind, err := detectMediaType(header)
	if err != nil {
		return nil, err
	}

	limit := MaxImageSize
	if kind == MediaTypeVideo {
		limit = MaxVideoSize
	}
	if header.Size > limit {
		return nil, fmt.Errorf("%w: %s", ErrStrategyMediaTooLarge, header.Filename)
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s", ErrStrategyMediaTooLarge, header.Filename)
	}

	media := &db.MediaFile{
		Type: kind,
		Name: cleanText(filepath.Base(header.Filename)),
		Size: int64(len(data)),
	}
	if kind == MediaTypeImage {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: cannot decode image", ErrMediaUnsupported)
		}
		media.Width = cfg.Width
		media.Height = cfg.Height
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	filename := fmt.Sprintf("%s-%s%s", s.now().Format("20060102"), uuid.New().String(), ext)
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	media.URL = path.Join(s.baseURL, filename)
	return media, nil
}

func detectMediaType(header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	kind, ok := allowedMediaExtensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMediaUnsupported, ext)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && contentType != "application/octet-stream" && !strings.HasPrefix(contentType, kind+"/") {
		return "", fmt.Errorf("%w: %s", ErrMediaUnsupported, contentType)
	}
	return kind, nil
}
