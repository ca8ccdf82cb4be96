package websub

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// topicFormat is the YouTube Atom feed topic for a channel.
	topicFormat = "https://www.youtube.com/xml/feeds/videos.xml?channel_id=%s"

	modeSubscribe   = "subscribe"
	modeUnsubscribe = "unsubscribe"
)

// HubClient issues subscribe and unsubscribe requests against a
// PubSubHubbub hub. Verification is asynchronous: the hub confirms by
// calling the callback with a challenge, so a 202 here only means the
// request was accepted for processing.
type HubClient struct {
	hubURL       string
	callbackBase string
	http         *http.Client
	logger       *zap.Logger
}

// NewHubClient creates a hub client posting to hubURL with callbacks rooted
// at callbackBase.
func NewHubClient(hubURL, callbackBase string, logger *zap.Logger) *HubClient {
	return &HubClient{
		hubURL:       hubURL,
		callbackBase: strings.TrimSuffix(callbackBase, "/"),
		http:         &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
	}
}

// TopicURL returns the feed topic for a YouTube channel ID.
func TopicURL(channelID string) string {
	return fmt.Sprintf(topicFormat, channelID)
}

// CallbackURL returns the callback the hub will deliver to for a webhook ID.
func (c *HubClient) CallbackURL(webhookID string) string {
	return c.callbackBase + "/websub/" + webhookID
}

// Subscribe requests a lease for the channel's topic, authenticated with the
// given secret.
func (c *HubClient) Subscribe(ctx context.Context, channelID, webhookID, secret string) error {
	return c.request(ctx, modeSubscribe, channelID, webhookID, secret)
}

// Unsubscribe asks the hub to drop the lease for the channel's topic.
func (c *HubClient) Unsubscribe(ctx context.Context, channelID, webhookID string) error {
	return c.request(ctx, modeUnsubscribe, channelID, webhookID, "")
}

func (c *HubClient) request(ctx context.Context, mode, channelID, webhookID, secret string) error {
	form := url.Values{}
	form.Set("hub.callback", c.CallbackURL(webhookID))
	form.Set("hub.mode", mode)
	form.Set("hub.topic", TopicURL(channelID))
	form.Set("hub.verify", "async")
	if secret != "" {
		form.Set("hub.secret", secret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.hubURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create hub request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post to hub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("hub rejected %s for channel %s: status %d", mode, channelID, resp.StatusCode)
	}

	c.logger.Debug("hub request accepted",
		zap.String("mode", mode),
		zap.String("channel_id", channelID),
		zap.Int("status", resp.StatusCode),
	)

	return nil
}

// NewSecret generates a fresh HMAC secret for a subscription lease.
func NewSecret() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate webhook secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
