package transfer

type TelegramMessage struct {
	MessageID int64 `json:"message_id"`
}

type TelegramSendResponse struct {
	OK          bool            `json:"ok"`
	Result      TelegramMessage `json:"result"`
	Description string          `json:"description"`
}

type TelegramSendGroupResponse struct {
	OK          bool              `json:"ok"`
	Result      []TelegramMessage `json:"result"`
	Description string            `json:"description"`
}

// TelegramInputMedia is one element of sendMediaGroup's media array;
// Media uses the attach://<name> scheme pointing at a multipart part.
type TelegramInputMedia struct {
	Type    string `json:"type"`
	Media   string `json:"media"`
	Caption string `json:"caption,omitempty"`
}
