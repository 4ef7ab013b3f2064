package domain

// Artifact is an exported fitting result.
type Artifact struct {
	Filename      string `json:"filename"`
	Path          string `json:"path"`
	ContentType   string `json:"content_type"`
	Size          int    `json:"size"`
	RemoteSaved   bool   `json:"remote_saved"`
	RemoteMessage string `json:"remote_message,omitempty"`
}

// SaveReceipt is the fitting service's answer to a save request.
type SaveReceipt struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
