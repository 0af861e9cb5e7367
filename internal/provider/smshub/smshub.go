// Package smshub implements the provider driver for the smshub-compatible
// handler_api protocol (also spoken by sms-activate and most resellers).
// Responses are plain text: "ACCESS_NUMBER:<id>:<phone>", "STATUS_OK:<code>",
// "STATUS_WAIT_CODE", "NO_NUMBERS", "ACCESS_CANCEL", ...
package smshub

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buba6c/onesms-v1-sub003/internal/provider"
	"github.com/buba6c/onesms-v1-sub003/internal/utils"
)

type SmshubDriver struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewSmshubDriver() *SmshubDriver {
	return &SmshubDriver{
		client: &http.Client{
			Timeout:   15 * time.Second,
			Transport: &utils.LoggingTransport{},
		},
	}
}

func (d *SmshubDriver) SetConfig(config map[string]interface{}) error {
	if val, ok := config["base_url"].(string); ok && val != "" {
		d.BaseURL = strings.TrimRight(val, "/")
	} else {
		return errors.New("missing base_url in config")
	}

	if val, ok := config["api_key"].(string); ok && val != "" {
		d.APIKey = val
	} else {
		return errors.New("missing api_key in config")
	}
	return nil
}

func (d *SmshubDriver) Purchase(service, country string) (*provider.PurchaseResult, error) {
	body, err := d.call("getNumber", map[string]string{
		"service": service,
		"country": country,
	})
	if err != nil {
		return nil, err
	}

	if body == "NO_NUMBERS" {
		return nil, provider.ErrNoNumbers
	}

	// ACCESS_NUMBER:<activation_id>:<phone>
	parts := strings.SplitN(body, ":", 3)
	if len(parts) != 3 || parts[0] != "ACCESS_NUMBER" {
		return nil, fmt.Errorf("unexpected getNumber response: %s", body)
	}

	return &provider.PurchaseResult{
		ActivationID: parts[1],
		PhoneNumber:  parts[2],
	}, nil
}

func (d *SmshubDriver) Cancel(activationID string) error {
	body, err := d.call("setStatus", map[string]string{
		"id":     activationID,
		"status": "8", // cancel
	})
	if err != nil {
		return err
	}

	if body != "ACCESS_CANCEL" && body != "ACCESS_ACTIVATION" {
		return fmt.Errorf("unexpected setStatus response: %s", body)
	}
	return nil
}

func (d *SmshubDriver) CheckStatus(activationID string) (*provider.StatusResult, error) {
	body, err := d.call("getStatus", map[string]string{"id": activationID})
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasPrefix(body, "STATUS_OK:"):
		return &provider.StatusResult{
			State: provider.StateReceived,
			Code:  strings.TrimPrefix(body, "STATUS_OK:"),
		}, nil
	case body == "STATUS_WAIT_CODE" || strings.HasPrefix(body, "STATUS_WAIT_RETRY:"):
		return &provider.StatusResult{State: provider.StateWaiting}, nil
	case body == "STATUS_CANCEL":
		return &provider.StatusResult{State: provider.StateCancelled}, nil
	}
	return nil, fmt.Errorf("unexpected getStatus response: %s", body)
}

func (d *SmshubDriver) call(action string, params map[string]string) (string, error) {
	q := url.Values{}
	q.Set("api_key", d.APIKey)
	q.Set("action", action)
	for k, v := range params {
		q.Set(k, v)
	}

	resp, err := d.client.Get(d.BaseURL + "?" + q.Encode())
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	body := strings.TrimSpace(string(raw))
	if strings.HasPrefix(body, "BAD_") || body == "NO_BALANCE" || body == "ERROR_SQL" {
		return "", fmt.Errorf("provider error: %s", body)
	}
	return body, nil
}
