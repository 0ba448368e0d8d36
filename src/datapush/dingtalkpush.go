package datapush

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"PricingIntelligence/src/config"
	"PricingIntelligence/src/storage"
)

const (
	RETRY_TIMES     = 5
	RETRY_INTERVAL  = 2 * time.Second
	DEFAULT_TIMEOUT = 10 * time.Second
)

// DingTalkResponse is the envelope of every robot API reply.
type DingTalkResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type textMessage struct {
	MsgType string `json:"msgtype"`
	Text    struct {
		Content string `json:"content"`
	} `json:"text"`
}

// DingTalkPusher posts run summaries to a DingTalk group robot.
type DingTalkPusher struct {
	webhook  string
	secret   string
	client   *http.Client
	logger   *storage.Logger
	Retries  int
	Interval time.Duration
	now      func() time.Time
}

// NewDingTalkPusher returns nil when no webhook is configured.
func NewDingTalkPusher(cfg *config.Config, logger *storage.Logger) *DingTalkPusher {
	if cfg == nil || cfg.Webhook.URL == "" {
		return nil
	}
	timeout := time.Duration(cfg.Webhook.Timeout)
	if timeout <= 0 {
		timeout = DEFAULT_TIMEOUT
	}
	return &DingTalkPusher{
		webhook:  cfg.Webhook.URL,
		secret:   cfg.Webhook.Secret,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		Retries:  RETRY_TIMES,
		Interval: RETRY_INTERVAL,
		now:      time.Now,
	}
}

// Push sends the summary lines as one text message. A nil pusher does nothing.
func (p *DingTalkPusher) Push(ctx context.Context, title string, lines []string) error {
	if p == nil {
		return nil
	}

	var msg textMessage
	msg.MsgType = "text"
	msg.Text.Content = title + "\n" + strings.Join(lines, "\n")

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = retry(ctx, func() error {
		return p.send(ctx, payload)
	}, p.Retries, p.Interval)
	if err != nil {
		p.logger.Error("dingtalk push failed", zap.Error(err))
		return err
	}
	p.logger.Info("dingtalk push sent", zap.Int("lines", len(lines)))
	return nil
}

func (p *DingTalkPusher) send(ctx context.Context, payload []byte) error {
	target, err := p.signedURL()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}

	var result DingTalkResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if result.ErrCode != 0 {
		return fmt.Errorf("dingtalk error %d: %s", result.ErrCode, result.ErrMsg)
	}
	return nil
}

// signedURL appends timestamp and sign when a secret is set.
func (p *DingTalkPusher) signedURL() (string, error) {
	if p.secret == "" {
		return p.webhook, nil
	}
	u, err := url.Parse(p.webhook)
	if err != nil {
		return "", fmt.Errorf("parse webhook: %w", err)
	}
	ts := strconv.FormatInt(p.now().UnixMilli(), 10)
	q := u.Query()
	q.Set("timestamp", ts)
	q.Set("sign", sign(ts, p.secret))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func sign(timestamp, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + "\n" + secret))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func retry(ctx context.Context, fn func() error, times int, interval time.Duration) error {
	if times < 1 {
		times = 1
	}
	var err error
	for i := 0; i < times; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < times-1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry aborted after %d tries: %w", i+1, ctx.Err())
			case <-time.After(interval):
			}
		}
	}
	return fmt.Errorf("failed after %d tries: %w", times, err)
}
