// Package visual delegates pixel-level classification to an external image
// moderation service and maps its labels into the safety taxonomy. Classifier
// failures degrade to "no labels": silence is safer than blocking a send.
package visual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"golang.org/x/time/rate"
)

// Label is one class/score pair from the external classifier.
type Label struct {
	Class string  `json:"class"`
	Score float64 `json:"score"`
}

type Classifier interface {
	Classify(ctx context.Context, data []byte) ([]Label, error)
}

// HTTPClassifier submits images to a remote moderation model over HTTP
// multipart, with an outbound request rate limit.
type HTTPClassifier struct {
	Client  http.Client
	Host    string
	Token   string
	Limiter *rate.Limiter
}

var _ Classifier = (*HTTPClassifier)(nil)

func NewHTTPClassifier(host, token string, reqPerSec int) *HTTPClassifier {
	return &HTTPClassifier{
		Client:  http.Client{Timeout: time.Second * 20},
		Host:    host,
		Token:   token,
		Limiter: rate.NewLimiter(rate.Limit(reqPerSec), 1),
	}
}

type classifyResp struct {
	Labels []Label `json:"labels"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, data []byte) ([]Label, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("media", "media")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Host+"/classify", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("User-Agent", "sentinel/"+versioninfo.Short())

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image classifier request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image classifier request failed, status: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading classifier response: %w", err)
	}
	var out classifyResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parsing classifier response: %w", err)
	}
	return out.Labels, nil
}
