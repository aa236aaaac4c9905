package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Pusher empurra notificações para um transporte externo (dispositivos
// inscritos). A entrega é best-effort; o registro in-app é a fonte de verdade.
type Pusher interface {
	Push(ctx context.Context, n Notification) error
}

// WebhookPusher posta a notificação em um endpoint HTTP externo.
type WebhookPusher struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookPusher devolve nil quando não há URL configurada; o dispatcher
// trata pusher nil como "sem push".
func NewWebhookPusher(webhookURL string) *WebhookPusher {
	if webhookURL == "" {
		return nil
	}
	return &WebhookPusher{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *WebhookPusher) Push(ctx context.Context, n Notification) error {
	if p == nil || p.webhookURL == "" {
		return errors.New("push não configurado")
	}

	payload := map[string]any{
		"recipient_id": n.RecipientID.String(),
		"title":        n.Title,
		"message":      n.Message,
		"type":         n.Type,
		"link":         n.Link,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errors.New("push rejeitado pelo transporte")
	}
	return nil
}
