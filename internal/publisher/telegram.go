package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fanpost/fanpost/internal/transfer"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// TelegramAdapter posts to a chat through the Bot API. Files are sent
// as direct multipart uploads, no public URL needed.
type TelegramAdapter struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewTelegramAdapter() *TelegramAdapter {
	return &TelegramAdapter{
		BaseURL:    defaultTelegramBaseURL,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (a *TelegramAdapter) Platform() string {
	return "telegram"
}

func (a *TelegramAdapter) Publish(ctx context.Context, req *Request) Result {
	creds := req.Credentials.telegram()
	if !creds.Configured() {
		return failure("telegram", "telegram credentials not configured")
	}
	if len(req.Media) == 0 {
		return failure("telegram", "no media to publish")
	}

	switch req.Kind {
	case KindVideo:
		return a.sendSingle(ctx, creds, "sendVideo", "video", req)
	default:
		if len(req.Media) == 1 {
			return a.sendSingle(ctx, creds, "sendPhoto", "photo", req)
		}
		return a.sendMediaGroup(ctx, creds, req)
	}
}

func (a *TelegramAdapter) sendSingle(ctx context.Context, creds *TelegramCredentials, method, field string, req *Request) Result {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("chat_id", creds.ChatID); err != nil {
		return failure("telegram", err.Error())
	}
	if err := writer.WriteField("caption", req.Caption); err != nil {
		return failure("telegram", err.Error())
	}
	if err := attachFile(writer, field, req.Media[0]); err != nil {
		return failure("telegram", err.Error())
	}
	if err := writer.Close(); err != nil {
		return failure("telegram", err.Error())
	}

	var resp transfer.TelegramSendResponse
	if err := a.call(ctx, creds, method, writer.FormDataContentType(), body, &resp); err != nil {
		return failure("telegram", err.Error())
	}
	if !resp.OK {
		return failure("telegram", telegramError(resp.Description))
	}
	return success("telegram", strconv.FormatInt(resp.Result.MessageID, 10), "Posted to Telegram")
}

// sendMediaGroup attaches every photo as its own multipart part and
// references them through the attach:// scheme, so the album lands as
// one message.
func (a *TelegramAdapter) sendMediaGroup(ctx context.Context, creds *TelegramCredentials, req *Request) Result {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	group := make([]transfer.TelegramInputMedia, len(req.Media))
	for i, item := range req.Media {
		name := fmt.Sprintf("file%d", i)
		group[i] = transfer.TelegramInputMedia{Type: "photo", Media: "attach://" + name}
		if i == 0 {
			group[i].Caption = req.Caption
		}
		if err := attachFile(writer, name, item); err != nil {
			return failure("telegram", err.Error())
		}
	}

	media, err := json.Marshal(group)
	if err != nil {
		return failure("telegram", err.Error())
	}
	if err := writer.WriteField("chat_id", creds.ChatID); err != nil {
		return failure("telegram", err.Error())
	}
	if err := writer.WriteField("media", string(media)); err != nil {
		return failure("telegram", err.Error())
	}
	if err := writer.Close(); err != nil {
		return failure("telegram", err.Error())
	}

	var resp transfer.TelegramSendGroupResponse
	if err := a.call(ctx, creds, "sendMediaGroup", writer.FormDataContentType(), body, &resp); err != nil {
		return failure("telegram", err.Error())
	}
	if !resp.OK {
		return failure("telegram", telegramError(resp.Description))
	}

	var messageID string
	if len(resp.Result) > 0 {
		messageID = strconv.FormatInt(resp.Result[0].MessageID, 10)
	}
	return success("telegram", messageID, fmt.Sprintf("%d photos posted to Telegram", len(req.Media)))
}

func (a *TelegramAdapter) call(ctx context.Context, creds *TelegramCredentials, method, contentType string, body io.Reader, out any) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", a.BaseURL, creds.BotToken, method)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := a.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding Telegram response: %w", err)
	}
	return nil
}

func attachFile(writer *multipart.Writer, field string, item MediaItem) error {
	file, err := os.Open(item.Path)
	if err != nil {
		return fmt.Errorf("error opening media file: %w", err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile(field, item.OriginalName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("error reading media file: %w", err)
	}
	return nil
}

func telegramError(description string) string {
	if description != "" {
		return description
	}
	return "Telegram returned a non-ok response"
}
