package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mairie-digitale/tresorerie-api/internal/application/ports"
)

var _ ports.WhatsAppSender = (*WhatsAppCloud)(nil)

const whatsAppAPIBase = "https://graph.facebook.com/v18.0"

// WhatsAppCloud envoie les messages via l'API Cloud WhatsApp Business
// (Graph API, jeton Bearer).
type WhatsAppCloud struct {
	token      string
	phoneID    string
	httpClient *http.Client
}

// NewWhatsAppCloud construit le transport WhatsApp.
func NewWhatsAppCloud(token, phoneID string, timeout time.Duration) *WhatsAppCloud {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WhatsAppCloud{
		token:      token,
		phoneID:    phoneID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type whatsAppRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

type whatsAppText struct {
	Body string `json:"body"`
}

type whatsAppResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// SendWhatsApp envoie un message texte au destinataire (format E.164 sans '+').
func (w *WhatsAppCloud) SendWhatsApp(ctx context.Context, destinataire, message string) (*ports.SendResult, error) {
	if w.token == "" || w.phoneID == "" {
		return nil, fmt.Errorf("whatsapp: WHATSAPP_TOKEN/WHATSAPP_ID_TELEPHONE non configurés")
	}

	payload := whatsAppRequest{
		MessagingProduct: "whatsapp",
		To:               destinataire,
		Type:             "text",
		Text:             whatsAppText{Body: message},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: sérialiser la requête: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", whatsAppAPIBase, w.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: créer la requête HTTP: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("whatsapp: timeout ou annulation: %w", ctx.Err())
		}
		return nil, fmt.Errorf("whatsapp: appel HTTP échoué: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: lire la réponse: %w", err)
	}

	var waResp whatsAppResponse
	if resp.StatusCode != http.StatusOK {
		if jsonErr := json.Unmarshal(rawBody, &waResp); jsonErr == nil && waResp.Error != nil {
			return nil, fmt.Errorf("whatsapp: Graph API (%s): %s", waResp.Error.Type, waResp.Error.Message)
		}
		return nil, fmt.Errorf("whatsapp: Graph API HTTP %d: %s", resp.StatusCode, string(rawBody))
	}

	if err := json.Unmarshal(rawBody, &waResp); err != nil {
		return nil, fmt.Errorf("whatsapp: déserialiser la réponse: %w", err)
	}

	externalID := ""
	if len(waResp.Messages) > 0 {
		externalID = waResp.Messages[0].ID
	}
	return &ports.SendResult{ExternalID: externalID, Raw: rawBody}, nil
}
