package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	domain "github.com/M1CTIAN/potato-doc/internal/domain/analysis"
)

// fieldName is fixed by the remote contract.
const fieldName = "file"

// Client talks to the remote classification endpoint. One multipart POST
// per call, no retry, no backoff; the only timeout is the transport's.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Classify uploads the image and returns the predicted condition label.
// Success is strictly HTTP 200 with a body carrying a non-empty
// "prediction"; every other outcome is an error for the caller to
// collapse into its single failure state.
func (c *Client) Classify(ctx context.Context, file *domain.SelectedFile) (string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	// part dengan content type asli file, bukan octet-stream
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldName, escapeQuotes(file.Name)))
	header.Set("Content-Type", file.ContentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var out struct {
		Prediction string `json:"prediction"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode classifier response: %w", err)
	}
	if out.Prediction == "" {
		return "", fmt.Errorf("classifier response missing prediction")
	}

	return out.Prediction, nil
}

// Check does a reachability probe for the health endpoint. Any HTTP
// response counts as reachable; only transport failures are errors.
func (c *Client) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("classifier unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

var _ domain.Classifier = (*Client)(nil)
