// Package telegramapi is a minimal Telegram Bot API client covering the two
// operations the bot needs: posting a photo with a caption to the channel and
// editing the caption of an existing message.
package telegramapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client talks to the Telegram Bot API for a single bot and channel.
type Client struct {
	// BaseURL overrides the API root, for tests. Defaults to the public API.
	BaseURL    string
	Token      string
	ChatID     string
	HTTPClient *http.Client
}

// NewClient returns a client for the given bot token and target chat.
func NewClient(token, chatID string) *Client {
	return &Client{
		Token:      token,
		ChatID:     chatID,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) methodURL(method string) string {
	base := c.BaseURL
	if base == "" {
		base = "https://api.telegram.org"
	}
	return fmt.Sprintf("%s/bot%s/%s", base, c.Token, method)
}

// apiEnvelope is the standard Bot API response wrapper.
type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func decodeEnvelope(resp *http.Response) (*apiEnvelope, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if !env.OK {
		return nil, fmt.Errorf("telegram api not ok (status %d): %s", resp.StatusCode, env.Description)
	}
	return &env, nil
}

// SendPhoto posts photo bytes with a caption to the configured chat and
// returns the new message id.
func (c *Client) SendPhoto(ctx context.Context, photo []byte, caption string) (int64, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("photo", "presence.jpg")
	if err != nil {
		return 0, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := fw.Write(photo); err != nil {
		return 0, fmt.Errorf("build multipart: %w", err)
	}
	for k, v := range map[string]string{
		"chat_id":    c.ChatID,
		"caption":    caption,
		"parse_mode": "HTML",
	} {
		if err := mw.WriteField(k, v); err != nil {
			return 0, fmt.Errorf("build multipart: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return 0, fmt.Errorf("build multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendPhoto"), &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.http().Do(req)
	if err != nil {
		return 0, fmt.Errorf("sendPhoto: %w", err)
	}
	defer resp.Body.Close()
	env, err := decodeEnvelope(resp)
	if err != nil {
		return 0, fmt.Errorf("sendPhoto: %w", err)
	}
	var result struct {
		MessageID int64 `json:"message_id"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return 0, fmt.Errorf("sendPhoto: decode result: %w", err)
	}
	if result.MessageID == 0 {
		return 0, fmt.Errorf("sendPhoto: response carried no message_id")
	}
	return result.MessageID, nil
}

// EditCaption replaces the caption of an existing message, leaving its photo
// untouched. A failure here is how the bot learns it must fall back to a
// fresh post.
func (c *Client) EditCaption(ctx context.Context, messageID int64, caption string) error {
	if messageID == 0 {
		return fmt.Errorf("editMessageCaption: message id is zero")
	}
	form := url.Values{
		"chat_id":    {c.ChatID},
		"message_id": {strconv.FormatInt(messageID, 10)},
		"caption":    {caption},
		"parse_mode": {"HTML"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("editMessageCaption"), bytes.NewBufferString(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http().Do(req)
	if err != nil {
		return fmt.Errorf("editMessageCaption: %w", err)
	}
	defer resp.Body.Close()
	if _, err := decodeEnvelope(resp); err != nil {
		return fmt.Errorf("editMessageCaption: %w", err)
	}
	return nil
}
