// Package auth 钱包签名登录：取 nonce、签名、换取 JWT
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoExpiry = errors.New("token has no expiry")

type LoginRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
	Nonce     string `json:"nonce"`
}

// Client talks to the server's /auth endpoints.
type Client struct {
	baseURL string
	signer  *Signer
	http    *http.Client
}

// 工厂方法：创建登录客户端
func NewClient(baseURL string, signer *Signer) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		signer:  signer,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Nonce GET /auth/nonce
func (c *Client) Nonce(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/nonce", nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Nonce string `json:"nonce"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("get nonce: %w", err)
	}
	if out.Nonce == "" {
		return "", errors.New("get nonce: empty nonce")
	}
	return out.Nonce, nil
}

// Login fetches a nonce, signs it and exchanges the signature for a JWT.
func (c *Client) Login(ctx context.Context) (string, error) {
	nonce, err := c.Nonce(ctx)
	if err != nil {
		return "", err
	}
	sig, err := c.signer.SignNonce(nonce)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(LoginRequest{Address: c.signer.Address(), Signature: sig, Nonce: nonce})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		JWT string `json:"jwt"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return out.JWT, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, e.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// TokenExpiry reads the exp claim without verifying the signature; only the
// server holds the secret.
func TokenExpiry(token string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, err
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// BearerHeader websocket 握手时携带的认证头
func BearerHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
