package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/fanpost/fanpost/internal/publisher"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrNoFiles        = errors.New("no files provided for the post")
	ErrMixedMedia     = errors.New("a post must be all images or a single video, not a mix")
	ErrMultipleVideos = errors.New("a video post can carry exactly one video")
)

type MediaService interface {
	// SaveUploads validates and persists multipart uploads into the
	// upload directory, mirroring to R2 when configured. On any error
	// nothing is left behind.
	SaveUploads(ctx context.Context, files []*multipart.FileHeader) ([]publisher.MediaItem, error)
	// Remove deletes the local files and any R2 mirror objects. Missing
	// files are ignored so removal stays idempotent.
	Remove(paths []string)
	// RemoveLocal deletes only the local copies, leaving the mirror for
	// platforms that pull media by URL after the request returns.
	RemoveLocal(paths []string)
}

type mediaService struct {
	uploadDir string
	r2        *R2Service
}

func NewMediaService(uploadDir string, r2 *R2Service) MediaService {
	return &mediaService{uploadDir: uploadDir, r2: r2}
}

var allowedExtensions = map[string]struct{}{
	"mp4": {}, "mov": {}, "jpeg": {}, "png": {}, "jpg": {},
}

func (s *mediaService) SaveUploads(ctx context.Context, files []*multipart.FileHeader) (items []publisher.MediaItem, err error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	defer func() {
		if err != nil {
			s.Remove(mediaPaths(items))
		}
	}()

	videos := 0
	images := 0
	for _, file := range files {
		fileContent, err := file.Open()
		if err != nil {
			return items, fmt.Errorf("error opening file: %w", err)
		}
		fileBytes, readErr := io.ReadAll(fileContent)
		fileContent.Close()
		if readErr != nil {
			return items, fmt.Errorf("error reading file content: %w", readErr)
		}

		fileType, err := filetype.Match(fileBytes)
		if err != nil || fileType == types.Unknown {
			return items, fmt.Errorf("unsupported file type")
		}
		if _, ok := allowedExtensions[fileType.Extension]; !ok {
			return items, fmt.Errorf("file type %s is not allowed", fileType.Extension)
		}

		mimeType := fileType.MIME.Value
		if strings.HasPrefix(mimeType, "video/") {
			videos++
		} else {
			images++
		}
		if videos > 1 {
			return items, ErrMultipleVideos
		}
		if videos > 0 && images > 0 {
			return items, ErrMixedMedia
		}

		name, err := gonanoid.New()
		if err != nil {
			return items, err
		}
		name = name + "." + fileType.Extension

		path := filepath.Join(s.uploadDir, name)
		if err := os.WriteFile(path, fileBytes, 0o644); err != nil {
			return items, fmt.Errorf("error saving file: %w", err)
		}
		items = append(items, publisher.MediaItem{
			Path:         path,
			MimeType:     mimeType,
			OriginalName: file.Filename,
			Size:         int64(len(fileBytes)),
		})

		if s.r2 != nil && s.r2.Configured() {
			if err := s.r2.Upload(ctx, name, fileBytes, mimeType); err != nil {
				return items, fmt.Errorf("error uploading file: %w", err)
			}
		}
	}

	return items, nil
}

func (s *mediaService) Remove(paths []string) {
	s.RemoveLocal(paths)
	if s.r2 == nil || !s.r2.Configured() {
		return
	}
	for _, path := range paths {
		if err := s.r2.Delete(context.Background(), filepath.Base(path)); err != nil {
			slog.Info(err.Error())
		}
	}
}

func (s *mediaService) RemoveLocal(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Info(err.Error())
		}
	}
}

func mediaPaths(items []publisher.MediaItem) []string {
	paths := make([]string, len(items))
	for i, item := range items {
		paths[i] = item.Path
	}
	return paths
}
