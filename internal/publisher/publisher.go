package publisher

import "context"

type MediaKind string

const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// MediaItem describes one uploaded file by its location on disk.
type MediaItem struct {
	Path         string
	MimeType     string
	OriginalName string
	Size         int64
}

// Request is the generic publish intent handed to every adapter in a
// batch. All items share one media kind.
type Request struct {
	Media       []MediaItem
	Caption     string
	Kind        MediaKind
	Credentials *Credentials
}

// Result is the settled outcome of one adapter invocation. Adapters
// never return errors; every failure is folded into Error.
type Result struct {
	Platform string `json:"platform"`
	Success  bool   `json:"success"`
	PostID   string `json:"post_id,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Adapter translates a Request into one platform's publish protocol.
type Adapter interface {
	Platform() string
	Publish(ctx context.Context, req *Request) Result
}

func success(platform, postID, message string) Result {
	return Result{Platform: platform, Success: true, PostID: postID, Message: message}
}

func failure(platform, msg string) Result {
	return Result{Platform: platform, Success: false, Error: msg}
}
