package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"

	"dodgearena/game"
)

// Reporter 对局结束时尽力上报参与与胜者
type Reporter interface {
	Report(ctx context.Context, res game.Result) error
}

// ErrNoToken 未能登录上报后端
var ErrNoToken = errors.New("report backend: no token")

// HTTPReporter 以管理员身份登录后，向 /api/dodge/play/ 与 /api/dodge/win/ 上报
type HTTPReporter struct {
	baseURL  string
	username string
	password string
	client   *http.Client

	mu    sync.RWMutex
	token string
}

func NewHTTPReporter(baseURL, username, password string, timeout time.Duration) *HTTPReporter {
	return &HTTPReporter{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		client:   &http.Client{Timeout: timeout},
	}
}

// Login 获取 token，网络错误或 5xx 时指数退避重试；4xx 直接失败
func (r *HTTPReporter) Login(ctx context.Context) error {
	backoff := retry.WithMaxRetries(4, retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		token, status, err := r.login(ctx)
		switch {
		case err != nil:
			return retry.RetryableError(err)
		case status >= 500:
			return retry.RetryableError(fmt.Errorf("login: status %d", status))
		case status < 200 || status > 299:
			return fmt.Errorf("login: status %d", status)
		}
		r.mu.Lock()
		r.token = token
		r.mu.Unlock()
		return nil
	})
}

func (r *HTTPReporter) login(ctx context.Context) (string, int, error) {
	body, err := json.Marshal(map[string]string{"username": r.username, "password": r.password})
	if err != nil {
		return "", 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/login/", bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", resp.StatusCode, nil
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", resp.StatusCode, fmt.Errorf("login: decode response: %w", err)
	}
	return out.Token, resp.StatusCode, nil
}

func (r *HTTPReporter) currentToken() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.token
}

// Report 为每位玩家上报参与，若有胜者再上报胜利；单个请求失败不重试，错误合并返回。
// 启动时登录失败的，在此补登录
func (r *HTTPReporter) Report(ctx context.Context, res game.Result) error {
	token := r.currentToken()
	if token == "" {
		if err := r.Login(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrNoToken, err)
		}
		token = r.currentToken()
	}

	var err error
	for _, p := range res.Placements {
		err = multierr.Append(err, r.post(ctx, token, "/api/dodge/play/", p.ExternalID, p.DisplayName))
	}
	if res.Winner != nil {
		err = multierr.Append(err, r.post(ctx, token, "/api/dodge/win/", res.Winner.ExternalID, res.Winner.DisplayName))
	}
	return err
}

func (r *HTTPReporter) post(ctx context.Context, token, path, externalID, username string) error {
	body, err := json.Marshal(map[string]string{"discord_id": externalID, "username": username})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+token)
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s for %s: %w", path, username, err)
	}
	resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s for %s: status %d", path, username, resp.StatusCode)
	}
	return nil
}
