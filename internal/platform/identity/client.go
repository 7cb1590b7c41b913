package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"moments-backend/internal/common/config"
	"moments-backend/internal/features/user/models"
)

// Client posts zero-knowledge identity proofs to an external verifier.
type Client struct {
	url        string
	scope      string
	httpClient *http.Client
}

type verifyRequest struct {
	Proof         map[string]interface{} `json:"proof"`
	PublicSignals []string               `json:"publicSignals"`
	Scope         string                 `json:"scope,omitempty"`
}

type verifyResponse struct {
	IsValid        bool   `json:"isValid"`
	UserIdentifier string `json:"userIdentifier"`
}

func NewClient(cfg *config.Config) *Client {
	timeout := cfg.Identity.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:   cfg.Identity.VerifierURL,
		scope: cfg.Identity.Scope,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Verify(ctx context.Context, proof models.VerificationProof) (bool, string, error) {
	if c.url == "" {
		return false, "", fmt.Errorf("identity verifier url is not configured")
	}

	body, err := json.Marshal(verifyRequest{
		Proof:         proof.Proof,
		PublicSignals: proof.PublicSignals,
		Scope:         c.scope,
	})
	if err != nil {
		return false, "", fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return false, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, "", fmt.Errorf("verifier request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, "", fmt.Errorf("verifier returned %d: %s", resp.StatusCode, string(data))
	}

	var out verifyResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return false, "", fmt.Errorf("decode response: %w", err)
	}
	return out.IsValid, out.UserIdentifier, nil
}
