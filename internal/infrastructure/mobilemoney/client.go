package mobilemoney

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

// Vérification à la compilation que Client implémente MobileMoneyProvider.
var _ ports.MobileMoneyProvider = (*Client)(nil)

// Client adaptateur REST vers l'agrégateur Mobile Money. Utilise net/http
// de la librairie standard; aucun SDK opérateur n'est requis.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient construit l'adaptateur. timeout borne chaque initiation; au-delà,
// l'appelant traite le paiement comme rejeté.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ── Structures du protocole de l'agrégateur ───────────────────────────────────

type initiateRequest struct {
	Montant     string `json:"montant"`
	Numero      string `json:"numéroTéléphone"`
	Reference   string `json:"référence"`
	Description string `json:"description"`
}

type initiateResponse struct {
	TransactionID string `json:"transactionId"`
	Statut        string `json:"statut"`
	Message       string `json:"message"`
}

// ── Implémentation du port ────────────────────────────────────────────────────

// Initiate demande à l'opérateur de pousser la demande de paiement vers le
// téléphone du contribuable. La confirmation réelle arrive plus tard via webhook.
func (c *Client) Initiate(ctx context.Context, in ports.MobileMoneyInitiation) (*ports.MobileMoneyResult, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("mobile money: MOBILE_MONEY_API_URL non configurée")
	}

	payload := initiateRequest{
		Montant:     in.Montant.StringFixed(2),
		Numero:      in.Numero,
		Reference:   in.Reference,
		Description: in.Description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("mobile money: sérialiser la requête: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/initier", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("mobile money: créer la requête HTTP: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("mobile money: timeout ou annulation: %w", ctx.Err())
		}
		return nil, fmt.Errorf("mobile money: appel HTTP échoué: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("mobile money: lire la réponse: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errResp initiateResponse
		if jsonErr := json.Unmarshal(rawBody, &errResp); jsonErr == nil && errResp.Message != "" {
			return nil, fmt.Errorf("mobile money: opérateur HTTP %d: %s", resp.StatusCode, errResp.Message)
		}
		return nil, fmt.Errorf("mobile money: opérateur HTTP %d: %s", resp.StatusCode, string(rawBody))
	}

	var initResp initiateResponse
	if err := json.Unmarshal(rawBody, &initResp); err != nil {
		return nil, fmt.Errorf("mobile money: déserialiser la réponse: %w", err)
	}
	if initResp.TransactionID == "" {
		return nil, fmt.Errorf("mobile money: réponse sans transactionId")
	}

	statut := initResp.Statut
	if statut == "" {
		statut = "initié"
	}

	return &ports.MobileMoneyResult{
		TransactionID: initResp.TransactionID,
		Statut:        statut,
		Raw:           rawBody,
	}, nil
}
