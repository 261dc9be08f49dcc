package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultSMSTimeout = 15 * time.Second

// SMSGatewayConfig holds connection parameters for the HTTP SMS gateway.
type SMSGatewayConfig struct {
	BaseURL string
	APIKey  string
	From    string
	// Timeout bounds each gateway call. Zero means the 15s default.
	Timeout time.Duration
}

// SMSGatewayProvider delivers SMS through a JSON HTTP gateway
// (POST <base>/messages with {"from","to","body"}).
type SMSGatewayProvider struct {
	config SMSGatewayConfig
	client *http.Client
}

// NewSMSGatewayProvider creates a new SMSGatewayProvider.
func NewSMSGatewayProvider(config SMSGatewayConfig) *SMSGatewayProvider {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultSMSTimeout
	}
	return &SMSGatewayProvider{
		config: config,
		client: &http.Client{Timeout: timeout},
	}
}

type smsSendRequest struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Body string `json:"body"`
}

type smsSendResponse struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error,omitempty"`
}

// Send posts the message to the gateway and returns its message id.
func (p *SMSGatewayProvider) Send(ctx context.Context, to, body string) (string, error) {
	payload, err := json.Marshal(smsSendRequest{From: p.config.From, To: to, Body: body})
	if err != nil {
		return "", fmt.Errorf("encoding sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.BaseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling sms gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("reading sms gateway response: %w", err)
	}

	var out smsSendResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		out = smsSendResponse{}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if out.Error != "" {
			return "", fmt.Errorf("sms gateway rejected message: %s (status %d)", out.Error, resp.StatusCode)
		}
		return "", fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return out.MessageID, nil
}
