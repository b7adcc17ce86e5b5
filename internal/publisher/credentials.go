package publisher

// Per-platform credential records. A platform is configured iff every
// field of its record is non-empty; a nil record means the user never
// saved credentials for it.

type FacebookCredentials struct {
	PageID      string
	AccessToken string
}

func (c *FacebookCredentials) Configured() bool {
	return c != nil && c.PageID != "" && c.AccessToken != ""
}

type TelegramCredentials struct {
	BotToken string
	ChatID   string
}

func (c *TelegramCredentials) Configured() bool {
	return c != nil && c.BotToken != "" && c.ChatID != ""
}

type TikTokCredentials struct {
	AccessToken string
	OpenID      string
}

func (c *TikTokCredentials) Configured() bool {
	return c != nil && c.AccessToken != "" && c.OpenID != ""
}

type InstagramCredentials struct {
	AccountID   string
	AccessToken string
}

func (c *InstagramCredentials) Configured() bool {
	return c != nil && c.AccountID != "" && c.AccessToken != ""
}

type YouTubeCredentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

func (c *YouTubeCredentials) Configured() bool {
	return c != nil && c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Credentials bundles one user's platform credentials as a closed set
// of variants, one per known platform.
type Credentials struct {
	Facebook  *FacebookCredentials
	Telegram  *TelegramCredentials
	TikTok    *TikTokCredentials
	Instagram *InstagramCredentials
	YouTube   *YouTubeCredentials
}

// CredentialsFromSettings builds the typed bundle from the raw
// platform -> field -> value rows of the settings store. Platforms
// with no stored fields stay nil.
func CredentialsFromSettings(settings map[string]map[string]string) *Credentials {
	c := &Credentials{}
	if f, ok := settings["facebook"]; ok {
		c.Facebook = &FacebookCredentials{
			PageID:      f["pageId"],
			AccessToken: f["accessToken"],
		}
	}
	if t, ok := settings["telegram"]; ok {
		c.Telegram = &TelegramCredentials{
			BotToken: t["botToken"],
			ChatID:   t["chatId"],
		}
	}
	if t, ok := settings["tiktok"]; ok {
		c.TikTok = &TikTokCredentials{
			AccessToken: t["accessToken"],
			OpenID:      t["openId"],
		}
	}
	if i, ok := settings["instagram"]; ok {
		c.Instagram = &InstagramCredentials{
			AccountID:   i["accountId"],
			AccessToken: i["accessToken"],
		}
	}
	if y, ok := settings["youtube"]; ok {
		c.YouTube = &YouTubeCredentials{
			ClientID:     y["clientId"],
			ClientSecret: y["clientSecret"],
			RefreshToken: y["refreshToken"],
		}
	}
	return c
}

func (c *Credentials) facebook() *FacebookCredentials {
	if c == nil {
		return nil
	}
	return c.Facebook
}

func (c *Credentials) telegram() *TelegramCredentials {
	if c == nil {
		return nil
	}
	return c.Telegram
}

func (c *Credentials) tiktok() *TikTokCredentials {
	if c == nil {
		return nil
	}
	return c.TikTok
}
