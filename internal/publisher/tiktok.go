package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fanpost/fanpost/internal/transfer"
)

const defaultTikTokBaseURL = "https://open.tiktokapis.com"

// TikTokAdapter publishes through the TikTok Open API. Videos go over
// the direct FILE_UPLOAD flow; photo posts use PULL_FROM_URL and so
// need the public media base.
type TikTokAdapter struct {
	BaseURL         string
	PublicMediaBase string
	HTTPClient      *http.Client
	PollInterval    time.Duration
	PollAttempts    int
}

func NewTikTokAdapter(publicMediaBase string) *TikTokAdapter {
	return &TikTokAdapter{
		BaseURL:         defaultTikTokBaseURL,
		PublicMediaBase: publicMediaBase,
		HTTPClient:      &http.Client{Timeout: 2 * time.Minute},
		PollInterval:    5 * time.Second,
		PollAttempts:    12,
	}
}

func (a *TikTokAdapter) Platform() string {
	return "tiktok"
}

func (a *TikTokAdapter) Publish(ctx context.Context, req *Request) Result {
	creds := req.Credentials.tiktok()
	if !creds.Configured() {
		return failure("tiktok", "tiktok credentials not configured")
	}
	if len(req.Media) == 0 {
		return failure("tiktok", "no media to publish")
	}

	switch req.Kind {
	case KindVideo:
		return a.publishVideo(ctx, creds, req)
	default:
		return a.publishPhotos(ctx, creds, req)
	}
}

func (a *TikTokAdapter) publishVideo(ctx context.Context, creds *TikTokCredentials, req *Request) Result {
	item := req.Media[0]

	initReq := transfer.TiktokVideoInitRequest{
		PostInfo: transfer.TiktokVideoPostInfo{
			Title:                 req.Caption,
			PrivacyLevel:          "PUBLIC_TO_EVERYONE",
			VideoCoverTimestampMs: 1000,
		},
		SourceInfo: transfer.TiktokFileSource{
			Source:          "FILE_UPLOAD",
			VideoSize:       item.Size,
			ChunkSize:       item.Size,
			TotalChunkCount: 1,
		},
	}

	var initResp transfer.TiktokInitResponse
	if err := a.postJSON(ctx, creds, "/v2/post/publish/video/init/", initReq, &initResp); err != nil {
		return failure("tiktok", err.Error())
	}
	if initResp.Error.Failed() {
		return failure("tiktok", initResp.Error.Message)
	}
	if initResp.Data.UploadURL == "" {
		return failure("tiktok", "TikTok returned no upload URL")
	}

	if err := a.uploadChunk(ctx, initResp.Data.UploadURL, item); err != nil {
		return failure("tiktok", err.Error())
	}

	if err := a.waitForPublish(ctx, creds, initResp.Data.PublishID); err != nil {
		return failure("tiktok", err.Error())
	}
	return success("tiktok", initResp.Data.PublishID, "Video published to TikTok")
}

func (a *TikTokAdapter) publishPhotos(ctx context.Context, creds *TikTokCredentials, req *Request) Result {
	if a.PublicMediaBase == "" {
		return failure("tiktok", "public media base URL not configured")
	}

	photos := make([]string, len(req.Media))
	for i, item := range req.Media {
		photos[i] = strings.TrimRight(a.PublicMediaBase, "/") + "/" + filepath.Base(item.Path)
	}

	initReq := transfer.TiktokPhotoInitRequest{
		PostInfo: transfer.TiktokPhotoPostInfo{
			Title:        req.Caption,
			PrivacyLevel: "PUBLIC_TO_EVERYONE",
			AutoAddMusic: true,
		},
		SourceInfo: transfer.TiktokPhotoSource{
			Source:          "PULL_FROM_URL",
			PhotoCoverIndex: 0,
			PhotoImages:     photos,
		},
		PostMode:  "DIRECT_POST",
		MediaType: "PHOTO",
	}

	var initResp transfer.TiktokInitResponse
	if err := a.postJSON(ctx, creds, "/v2/post/publish/content/init/", initReq, &initResp); err != nil {
		return failure("tiktok", err.Error())
	}
	if initResp.Error.Failed() {
		return failure("tiktok", initResp.Error.Message)
	}
	return success("tiktok", initResp.Data.PublishID, fmt.Sprintf("%d photos published to TikTok", len(req.Media)))
}

// uploadChunk sends the whole file as one chunk, declaring the exact
// byte range against the total size.
func (a *TikTokAdapter) uploadChunk(ctx context.Context, uploadURL string, item MediaItem) error {
	file, err := os.Open(item.Path)
	if err != nil {
		return fmt.Errorf("error opening media file: %w", err)
	}
	defer file.Close()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return err
	}
	httpReq.ContentLength = item.Size
	httpReq.Header.Set("Content-Type", item.MimeType)
	httpReq.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", item.Size-1, item.Size))

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("error uploading video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("TikTok upload returned status %d", resp.StatusCode)
	}
	return nil
}

// waitForPublish polls the publish container until TikTok reports a
// terminal status, bounded by the attempt ceiling.
func (a *TikTokAdapter) waitForPublish(ctx context.Context, creds *TikTokCredentials, publishID string) error {
	for attempt := 0; attempt < a.PollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(a.PollInterval):
		}

		var statusResp transfer.TiktokStatusResponse
		err := a.postJSON(ctx, creds, "/v2/post/publish/status/fetch/", transfer.TiktokStatusRequest{PublishID: publishID}, &statusResp)
		if err != nil {
			return err
		}
		if statusResp.Error.Failed() {
			return fmt.Errorf("%s", statusResp.Error.Message)
		}

		switch statusResp.Data.Status {
		case "PUBLISH_COMPLETE":
			return nil
		case "FAILED":
			if statusResp.Data.FailReason != "" {
				return fmt.Errorf("%s", statusResp.Data.FailReason)
			}
			return fmt.Errorf("TikTok reported a publish failure")
		default:
			slog.Info("tiktok publish still processing", "publish_id", publishID, "status", statusResp.Data.Status)
		}
	}

	return fmt.Errorf("timed out waiting for TikTok publish processing")
}

func (a *TikTokAdapter) postJSON(ctx context.Context, creds *TikTokCredentials, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	httpReq.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("TikTok returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("error decoding TikTok response: %w", err)
	}
	return nil
}
