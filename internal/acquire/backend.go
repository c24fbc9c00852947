package acquire

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/prospectai/prospect-cli/internal/model"
)

// BackendStrategy queries a site's backend content endpoint directly when
// one is known. Used only as a last resort: the endpoints are undocumented
// and their schemas shift without notice.
type BackendStrategy struct {
	client *http.Client
	// endpoints maps a host to its backend query endpoint.
	endpoints map[string]string
}

// NewBackendStrategy creates a BackendStrategy over the host→endpoint map.
func NewBackendStrategy(endpoints map[string]string, timeout time.Duration) *BackendStrategy {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &BackendStrategy{
		client:    &http.Client{Timeout: timeout},
		endpoints: endpoints,
	}
}

func (s *BackendStrategy) Name() string { return "backend_api" }

// Supports returns true only when a backend endpoint is configured for the
// URL's host.
func (s *BackendStrategy) Supports(targetURL string) bool {
	return s.endpointFor(targetURL) != ""
}

// backendResponse is the loose shape backend endpoints return; only one of
// the content fields is expected to be set.
type backendResponse struct {
	HTML    string `json:"html"`
	Content string `json:"content"`
	Text    string `json:"text"`
	Title   string `json:"title"`
}

// Fetch posts a content query for the target URL to the host's endpoint.
func (s *BackendStrategy) Fetch(ctx context.Context, targetURL string) (*model.RawContent, error) {
	endpoint := s.endpointFor(targetURL)
	if endpoint == "" {
		return nil, eris.Errorf("backend_api: no endpoint for url: %s", targetURL)
	}

	payload, err := json.Marshal(map[string]string{"url": targetURL})
	if err != nil {
		return nil, eris.Wrap(err, "backend_api: marshal query")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "backend_api: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "backend_api: query")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("backend_api: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "backend_api: read body")
	}

	var parsed backendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "backend_api: parse response")
	}

	content := &model.RawContent{
		URL:        targetURL,
		Title:      parsed.Title,
		HTML:       parsed.HTML,
		Markdown:   firstNonEmpty(parsed.Content, parsed.Text),
		Source:     "backend_api",
		StatusCode: resp.StatusCode,
		FetchedAt:  time.Now().UTC(),
	}
	if content.Empty() {
		return nil, eris.New("backend_api: response carried no content")
	}
	return content, nil
}

func (s *BackendStrategy) endpointFor(targetURL string) string {
	u, err := url.Parse(targetURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return s.endpoints[u.Host]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
