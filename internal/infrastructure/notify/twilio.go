package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mairie-digitale/tresorerie-api/internal/application/ports"
)

var _ ports.SMSSender = (*TwilioSMS)(nil)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioSMS envoie des SMS via l'API REST Twilio (POST formulaire avec
// authentification basique SID/token).
type TwilioSMS struct {
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
}

// NewTwilioSMS construit le transport SMS.
func NewTwilioSMS(accountSID, authToken, from string, timeout time.Duration) *TwilioSMS {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TwilioSMS{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type twilioResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Message string `json:"message"` // Renseigné uniquement sur erreur
}

// SendSMS envoie un SMS au destinataire (format E.164 attendu).
func (t *TwilioSMS) SendSMS(ctx context.Context, destinataire, message string) (*ports.SendResult, error) {
	if t.accountSID == "" || t.authToken == "" {
		return nil, fmt.Errorf("sms: TWILIO_SID/TWILIO_TOKEN non configurés")
	}

	form := url.Values{}
	form.Set("To", destinataire)
	form.Set("From", t.from)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", twilioAPIBase, t.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("sms: créer la requête HTTP: %w", err)
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("sms: timeout ou annulation: %w", ctx.Err())
		}
		return nil, fmt.Errorf("sms: appel HTTP échoué: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("sms: lire la réponse: %w", err)
	}

	var twResp twilioResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if jsonErr := json.Unmarshal(rawBody, &twResp); jsonErr == nil && twResp.Message != "" {
			return nil, fmt.Errorf("sms: Twilio HTTP %d: %s", resp.StatusCode, twResp.Message)
		}
		return nil, fmt.Errorf("sms: Twilio HTTP %d: %s", resp.StatusCode, string(rawBody))
	}

	if err := json.Unmarshal(rawBody, &twResp); err != nil {
		return nil, fmt.Errorf("sms: déserialiser la réponse Twilio: %w", err)
	}

	return &ports.SendResult{ExternalID: twResp.SID, Raw: rawBody}, nil
}
