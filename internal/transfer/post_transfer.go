package transfer

// PostCreation carries the multipart form fields of a publish request.
// Platforms is a JSON array of platform names; ScheduledTime is empty
// for immediate posts.
type PostCreation struct {
	Caption       string
	ScheduledTime string
	Platforms     string
}

type CredentialsUpdate struct {
	Platform string            `json:"platform"`
	Fields   map[string]string `json:"fields"`
}
