package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/fanpost/fanpost/internal/transfer"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v21.0"

// FacebookAdapter publishes to a Facebook page through the Graph API.
// Media is handed over by public URL, so PublicMediaBase must point at
// the served upload directory.
type FacebookAdapter struct {
	BaseURL         string
	PublicMediaBase string
	HTTPClient      *http.Client
	PollInterval    time.Duration
	PollAttempts    int
}

func NewFacebookAdapter(publicMediaBase string) *FacebookAdapter {
	return &FacebookAdapter{
		BaseURL:         defaultGraphBaseURL,
		PublicMediaBase: publicMediaBase,
		HTTPClient:      &http.Client{Timeout: 2 * time.Minute},
		PollInterval:    5 * time.Second,
		PollAttempts:    12,
	}
}

func (a *FacebookAdapter) Platform() string {
	return "facebook"
}

func (a *FacebookAdapter) Publish(ctx context.Context, req *Request) Result {
	creds := req.Credentials.facebook()
	if !creds.Configured() {
		return failure("facebook", "facebook credentials not configured")
	}
	if a.PublicMediaBase == "" {
		return failure("facebook", "public media base URL not configured")
	}
	if len(req.Media) == 0 {
		return failure("facebook", "no media to publish")
	}

	switch req.Kind {
	case KindVideo:
		return a.publishVideo(ctx, creds, req)
	default:
		if len(req.Media) == 1 {
			return a.publishPhoto(ctx, creds, req)
		}
		return a.publishMultiPhoto(ctx, creds, req)
	}
}

func (a *FacebookAdapter) publishPhoto(ctx context.Context, creds *FacebookCredentials, req *Request) Result {
	form := url.Values{}
	form.Set("url", a.mediaURL(req.Media[0]))
	form.Set("caption", req.Caption)
	form.Set("access_token", creds.AccessToken)

	var resp transfer.FacebookPhotoResponse
	if err := a.postForm(ctx, fmt.Sprintf("%s/%s/photos", a.BaseURL, creds.PageID), form, &resp); err != nil {
		return failure("facebook", err.Error())
	}
	if resp.Error != nil {
		return failure("facebook", resp.Error.Message)
	}

	postID := resp.PostID
	if postID == "" {
		postID = resp.ID
	}
	return success("facebook", postID, "Photo published to Facebook page")
}

// publishMultiPhoto stages every photo unpublished first, then attaches
// all of them to a single feed post so no partial album is ever visible.
func (a *FacebookAdapter) publishMultiPhoto(ctx context.Context, creds *FacebookCredentials, req *Request) Result {
	attached := make([]transfer.FacebookAttachedMedia, 0, len(req.Media))
	for _, item := range req.Media {
		form := url.Values{}
		form.Set("url", a.mediaURL(item))
		form.Set("published", "false")
		form.Set("access_token", creds.AccessToken)

		var resp transfer.FacebookPhotoResponse
		if err := a.postForm(ctx, fmt.Sprintf("%s/%s/photos", a.BaseURL, creds.PageID), form, &resp); err != nil {
			return failure("facebook", err.Error())
		}
		if resp.Error != nil {
			return failure("facebook", resp.Error.Message)
		}
		attached = append(attached, transfer.FacebookAttachedMedia{MediaFbid: resp.ID})
	}

	form := url.Values{}
	form.Set("message", req.Caption)
	form.Set("access_token", creds.AccessToken)
	for i, media := range attached {
		encoded, err := json.Marshal(media)
		if err != nil {
			return failure("facebook", fmt.Sprintf("error encoding attached media: %v", err))
		}
		form.Set(fmt.Sprintf("attached_media[%d]", i), string(encoded))
	}

	var resp transfer.FacebookFeedResponse
	if err := a.postForm(ctx, fmt.Sprintf("%s/%s/feed", a.BaseURL, creds.PageID), form, &resp); err != nil {
		return failure("facebook", err.Error())
	}
	if resp.Error != nil {
		return failure("facebook", resp.Error.Message)
	}
	return success("facebook", resp.ID, fmt.Sprintf("%d photos published to Facebook page", len(req.Media)))
}

func (a *FacebookAdapter) publishVideo(ctx context.Context, creds *FacebookCredentials, req *Request) Result {
	form := url.Values{}
	form.Set("file_url", a.mediaURL(req.Media[0]))
	form.Set("description", req.Caption)
	form.Set("access_token", creds.AccessToken)

	var resp transfer.FacebookVideoResponse
	if err := a.postForm(ctx, fmt.Sprintf("%s/%s/videos", a.BaseURL, creds.PageID), form, &resp); err != nil {
		return failure("facebook", err.Error())
	}
	if resp.Error != nil {
		return failure("facebook", resp.Error.Message)
	}
	if resp.ID == "" {
		return failure("facebook", "Facebook returned no video id")
	}

	if err := a.waitForVideo(ctx, creds, resp.ID); err != nil {
		return failure("facebook", err.Error())
	}
	return success("facebook", resp.ID, "Video published to Facebook page")
}

// waitForVideo polls the processing container until Facebook reports a
// terminal state. The attempt ceiling holds even if the platform never
// reaches one.
func (a *FacebookAdapter) waitForVideo(ctx context.Context, creds *FacebookCredentials, videoID string) error {
	statusURL := fmt.Sprintf("%s/%s?fields=status&access_token=%s", a.BaseURL, videoID, url.QueryEscape(creds.AccessToken))

	for attempt := 0; attempt < a.PollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.PollInterval):
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
		if err != nil {
			return err
		}
		resp, err := a.HTTPClient.Do(httpReq)
		if err != nil {
			return fmt.Errorf("error fetching video status: %w", err)
		}

		var status transfer.FacebookVideoStatusResponse
		err = json.NewDecoder(resp.Body).Decode(&status)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("error decoding video status: %w", err)
		}
		if status.Error != nil {
			return fmt.Errorf("%s", status.Error.Message)
		}

		switch status.Status.VideoStatus {
		case "ready":
			return nil
		case "error":
			return fmt.Errorf("Facebook reported a video processing error")
		default:
			slog.Info("facebook video still processing", "video_id", videoID, "status", status.Status.VideoStatus)
		}
	}

	return fmt.Errorf("timed out waiting for Facebook video processing")
}

func (a *FacebookAdapter) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	// Graph error bodies are decoded before the status code is judged
	// so the platform-reported message wins over a generic one.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("Facebook returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("error decoding Facebook response: %w", err)
	}
	return nil
}

func (a *FacebookAdapter) mediaURL(item MediaItem) string {
	return strings.TrimRight(a.PublicMediaBase, "/") + "/" + filepath.Base(item.Path)
}
