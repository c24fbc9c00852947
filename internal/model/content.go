package model

import "time"

// RawContent is a fetched page, normalised to markdown for prompting.
type RawContent struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	HTML       string    `json:"html,omitempty"`
	Markdown   string    `json:"markdown"`
	Source     string    `json:"source"` // e.g. "browser", "http", "backend_api"
	StatusCode int       `json:"status_code"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Empty reports whether the content carries no usable text.
func (c *RawContent) Empty() bool {
	return c == nil || (c.Markdown == "" && c.HTML == "")
}
