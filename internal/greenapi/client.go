// Package greenapi implements the HTTP client for the remote WhatsApp
// gateway ("the provider"). Every method acquires rate-limit admission,
// performs exactly one round trip, and classifies failures; retry and
// backoff policy belongs to callers, because QR polling, state checks and
// notification draining all back off differently.
package greenapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ybarkan/wagate/internal/config"
	"github.com/ybarkan/wagate/internal/logging"
)

// Admitter gates outbound requests. *ratelimit.Limiter satisfies it.
type Admitter interface {
	Wait(ctx context.Context) error
}

// Client talks to one provider instance, identified by an id/token pair.
type Client struct {
	baseURL    string
	instanceID string
	token      string

	httpClient *http.Client
	limiter    Admitter
	log        *logging.Logger
}

// New creates a provider client sharing the given admission gate.
func New(cfg config.ProviderConfig, limiter Admitter, log *logging.Logger) *Client {
	timeout := cfg.RequestTimeout()
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		instanceID: cfg.InstanceID,
		token:      cfg.APIToken,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		log:        log.Sub("greenapi"),
	}
}

// url builds https://<host>/waInstance{id}/{op}/{token}[/extra].
func (c *Client) url(op, extra string) string {
	u := fmt.Sprintf("%s/waInstance%s/%s/%s", c.baseURL, c.instanceID, op, c.token)
	if extra != "" {
		u += "/" + extra
	}
	return u
}

// request performs one admitted HTTP round trip. A nil out skips decoding.
// Non-2xx returns *APIError; a 2xx body that fails to decode returns
// *ProtocolError.
func (c *Client) request(ctx context.Context, method, op, extra string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("greenapi: %s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(op, extra), reader)
	if err != nil {
		return fmt.Errorf("greenapi: %s: create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("greenapi: %s: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("greenapi: %s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, Status: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &ProtocolError{Op: op, Err: err}
	}
	return nil
}

// GetStateInstance returns the instance's raw authorization state string
// ("authorized", "notAuthorized", "starting", ...).
func (c *Client) GetStateInstance(ctx context.Context) (string, error) {
	var out struct {
		StateInstance string `json:"stateInstance"`
	}
	if err := c.request(ctx, http.MethodGet, "getStateInstance", "", nil, &out); err != nil {
		return "", err
	}
	return out.StateInstance, nil
}

// GetQR fetches the current QR challenge. May return an empty response when
// the provider has no challenge ready yet; that is not an error.
func (c *Client) GetQR(ctx context.Context) (*QRResponse, error) {
	var out QRResponse
	if err := c.request(ctx, http.MethodGet, "qr", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetChats lists all chats known to the instance.
func (c *Client) GetChats(ctx context.Context) ([]Chat, error) {
	var out []Chat
	if err := c.request(ctx, http.MethodPost, "getChats", "", map[string]any{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetChatHistory returns up to count prior messages of a chat.
func (c *Client) GetChatHistory(ctx context.Context, chatID string, count int) ([]HistoryMessage, error) {
	if count <= 0 {
		count = 100
	}
	var out []HistoryMessage
	body := map[string]any{"chatId": chatID, "count": count}
	if err := c.request(ctx, http.MethodPost, "getChatHistory", "", body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage sends a text message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID, message string) (*SendResult, error) {
	var out SendResult
	body := map[string]any{"chatId": chatID, "message": message}
	if err := c.request(ctx, http.MethodPost, "sendMessage", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReceiveNotification drains the next queued notification. Returns
// (nil, nil) when the inbox is empty: the provider signals this with an
// empty 200 body, a 204, or (observed under load) a 502.
func (c *Client) ReceiveNotification(ctx context.Context) (*Notification, error) {
	var out Notification
	err := c.request(ctx, http.MethodGet, "receiveNotification", "", nil, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) &&
			(apiErr.Status == http.StatusNoContent || apiErr.Status == http.StatusBadGateway) {
			return nil, nil
		}
		return nil, err
	}
	if out.ReceiptID == 0 && out.Body.TypeWebhook == "" {
		return nil, nil
	}
	return &out, nil
}

// DeleteNotification acknowledges a fetched notification so the provider
// stops redelivering it.
func (c *Client) DeleteNotification(ctx context.Context, receiptID int64) error {
	return c.request(ctx, http.MethodDelete, "deleteNotification", fmt.Sprintf("%d", receiptID), nil, nil)
}

// DownloadFile fetches the bytes of a media message. When directURL is
// set (the webhook already carried one) the probe step is skipped;
// otherwise the downloadFile endpoint is asked for a URL first.
func (c *Client) DownloadFile(ctx context.Context, chatID, idMessage, directURL string) ([]byte, error) {
	url := directURL
	if url == "" {
		var out downloadURLResponse
		body := map[string]any{"chatId": chatID, "idMessage": idMessage}
		if err := c.request(ctx, http.MethodPost, "downloadFile", "", body, &out); err != nil {
			return nil, err
		}
		url = out.URL()
		if url == "" {
			return nil, &ProtocolError{Op: "downloadFile", Err: fmt.Errorf("no download URL in response")}
		}
	}
	return c.fetchURL(ctx, url)
}

// fetchURL downloads raw bytes from a provider-issued URL. The URL is
// pre-signed, so this call bypasses the instance path but still honors
// rate-limit admission.
func (c *Client) fetchURL(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("greenapi: download: create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("greenapi: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{Op: "download", Status: resp.StatusCode, Body: string(body)}
	}
	return io.ReadAll(resp.Body)
}

// Logout unlinks the phone from the instance.
func (c *Client) Logout(ctx context.Context) (*LogoutResult, error) {
	var out LogoutResult
	if err := c.request(ctx, http.MethodGet, "logout", "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reboot restarts the provider-side instance.
func (c *Client) Reboot(ctx context.Context) error {
	var out LogoutResult
	return c.request(ctx, http.MethodGet, "reboot", "", nil, &out)
}

// LogoutOrReboot logs out, falling back to a reboot when the provider does
// not confirm the logout. Some provider versions only unlink via reboot.
func (c *Client) LogoutOrReboot(ctx context.Context) error {
	res, err := c.Logout(ctx)
	if err != nil {
		return err
	}
	if res.IsLogout {
		return nil
	}
	c.log.Warn().Msg("logout not confirmed by provider, rebooting instance instead")
	return c.Reboot(ctx)
}
