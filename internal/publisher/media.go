package publisher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// mimeByExtension covers exactly the upload types the service accepts.
var mimeByExtension = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
}

func KindFromMime(mimeType string) MediaKind {
	if strings.HasPrefix(mimeType, "video/") {
		return KindVideo
	}
	return KindImage
}

// MediaFromPaths reconstructs in-memory media descriptors for files
// persisted ahead of scheduling, inferring the MIME type from the file
// extension.
func MediaFromPaths(paths []string) ([]MediaItem, error) {
	items := make([]MediaItem, 0, len(paths))
	for _, path := range paths {
		ext := strings.ToLower(filepath.Ext(path))
		mimeType, ok := mimeByExtension[ext]
		if !ok {
			return nil, fmt.Errorf("unsupported media file extension %q", ext)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("media file missing: %w", err)
		}
		items = append(items, MediaItem{
			Path:         path,
			MimeType:     mimeType,
			OriginalName: filepath.Base(path),
			Size:         info.Size(),
		})
	}
	return items, nil
}
