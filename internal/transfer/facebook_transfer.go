package transfer

type FacebookError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

type FacebookPhotoResponse struct {
	ID     string         `json:"id"`
	PostID string         `json:"post_id"`
	Error  *FacebookError `json:"error"`
}

type FacebookFeedResponse struct {
	ID    string         `json:"id"`
	Error *FacebookError `json:"error"`
}

type FacebookVideoResponse struct {
	ID    string         `json:"id"`
	Error *FacebookError `json:"error"`
}

type FacebookVideoStatusResponse struct {
	Status struct {
		VideoStatus string `json:"video_status"`
	} `json:"status"`
	Error *FacebookError `json:"error"`
}

type FacebookAttachedMedia struct {
	MediaFbid string `json:"media_fbid"`
}
