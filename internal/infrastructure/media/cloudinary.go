// Package media removes product images from the hosting provider when
// their product is deleted. Uploads happen client-side; the server only
// ever destroys.
package media

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds the Cloudinary credentials.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Enabled reports whether the credentials are complete.
func (c Config) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// CloudinaryStore deletes images through the Cloudinary destroy API.
type CloudinaryStore struct {
	config Config
	client *http.Client
	now    func() time.Time
}

// NewCloudinaryStore creates a Cloudinary-backed image store.
func NewCloudinaryStore(config Config) *CloudinaryStore {
	return &CloudinaryStore{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

// Delete destroys the image identified by publicID. A missing image is
// not an error: Cloudinary answers "not found" and the product delete
// proceeds either way.
func (s *CloudinaryStore) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}

	timestamp := strconv.FormatInt(s.now().Unix(), 10)

	// Destroy requests are signed over the sorted parameter string plus
	// the API secret.
	params := url.Values{}
	params.Set("public_id", publicID)
	params.Set("timestamp", timestamp)
	params.Set("signature", s.sign(publicID, timestamp))
	params.Set("api_key", s.config.APIKey)

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/destroy", s.config.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("build destroy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("destroy image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("destroy image: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Result string `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode destroy response: %w", err)
	}
	if body.Result != "ok" && body.Result != "not found" {
		return fmt.Errorf("destroy image: %s", body.Result)
	}
	return nil
}

func (s *CloudinaryStore) sign(publicID, timestamp string) string {
	payload := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, s.config.APISecret)
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// NoopStore is used when no image hosting is configured.
type NoopStore struct{}

// NewNoopStore creates a store that discards deletes.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

// Delete does nothing.
func (s *NoopStore) Delete(ctx context.Context, publicID string) error {
	return nil
}
