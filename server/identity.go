package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Verifier 用户名 + 一次性认证码 → 外部身份
type Verifier interface {
	Verify(ctx context.Context, username, authCode string) (Identity, error)
}

// VerifyError 后端拒绝验证，Message 为后端给出的提示（可能为空）
type VerifyError struct {
	Status  int
	Message string
}

func (e *VerifyError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("verify: status %d", e.Status)
	}
	return fmt.Sprintf("verify: status %d: %s", e.Status, e.Message)
}

func (e *VerifyError) Unwrap() error { return ErrVerificationFailed }

// HTTPVerifier 调用后端 /api/dodge/verify/
type HTTPVerifier struct {
	baseURL string
	client  *http.Client
}

func NewHTTPVerifier(baseURL string, timeout time.Duration) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type verifyRequest struct {
	Username string `json:"username"`
	AuthCode string `json:"auth_code"`
}

type verifyResponse struct {
	DiscordID string `json:"discord_id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
}

func (v *HTTPVerifier) Verify(ctx context.Context, username, authCode string) (Identity, error) {
	body, err := json.Marshal(verifyRequest{Username: username, AuthCode: authCode})
	if err != nil {
		return Identity{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/api/dodge/verify/", bytes.NewReader(body))
	if err != nil {
		return Identity{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
	}
	defer resp.Body.Close()

	var out verifyResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Identity{}, &VerifyError{Status: resp.StatusCode, Message: out.Message}
	}
	if decodeErr != nil {
		return Identity{}, fmt.Errorf("%w: decode response: %v", ErrVerifierUnavailable, decodeErr)
	}
	if out.DiscordID == "" {
		return Identity{}, &VerifyError{Status: resp.StatusCode, Message: out.Message}
	}
	name := out.Username
	if name == "" {
		name = username
	}
	return Identity{ExternalID: out.DiscordID, Name: name}, nil
}
