package transfer

type TiktokError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

// Failed reports whether the error envelope carries a real error;
// TikTok returns code "ok" on success.
func (e TiktokError) Failed() bool {
	return e.Code != "" && e.Code != "ok"
}

type TiktokVideoPostInfo struct {
	Title                 string `json:"title"`
	PrivacyLevel          string `json:"privacy_level"`
	DisableDuet           bool   `json:"disable_duet"`
	DisableComment        bool   `json:"disable_comment"`
	DisableStitch         bool   `json:"disable_stitch"`
	VideoCoverTimestampMs int    `json:"video_cover_timestamp_ms"`
}

// TiktokFileSource declares a direct binary upload. The chunk fields
// express the general chunked-range contract even though current size
// ceilings always fit a single chunk.
type TiktokFileSource struct {
	Source          string `json:"source"`
	VideoSize       int64  `json:"video_size"`
	ChunkSize       int64  `json:"chunk_size"`
	TotalChunkCount int    `json:"total_chunk_count"`
}

type TiktokVideoInitRequest struct {
	PostInfo   TiktokVideoPostInfo `json:"post_info"`
	SourceInfo TiktokFileSource    `json:"source_info"`
}

type TiktokPhotoPostInfo struct {
	Title          string `json:"title"`
	PrivacyLevel   string `json:"privacy_level"`
	AutoAddMusic   bool   `json:"auto_add_music"`
	DisableComment bool   `json:"disable_comment"`
}

type TiktokPhotoSource struct {
	Source          string   `json:"source"`
	PhotoCoverIndex int      `json:"photo_cover_index"`
	PhotoImages     []string `json:"photo_images"`
}

type TiktokPhotoInitRequest struct {
	PostInfo   TiktokPhotoPostInfo `json:"post_info"`
	SourceInfo TiktokPhotoSource   `json:"source_info"`
	PostMode   string              `json:"post_mode"`
	MediaType  string              `json:"media_type"`
}

type TiktokInitResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
		UploadURL string `json:"upload_url"`
	} `json:"data"`
	Error TiktokError `json:"error"`
}

type TiktokStatusRequest struct {
	PublishID string `json:"publish_id"`
}

type TiktokStatusResponse struct {
	Data struct {
		Status     string `json:"status"`
		FailReason string `json:"fail_reason"`
	} `json:"data"`
	Error TiktokError `json:"error"`
}
