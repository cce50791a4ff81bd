// Package registry contient les clients HTTP vers les services internes
// recettes et contribuables. Les appels portent l'en-tête X-Internal-Service
// et les réponses suivent l'enveloppe commune {succès, message, données}.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mairie-digitale/tresorerie-api/internal/application/ports"
	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
)

var _ ports.FactureRegistry = (*RecettesClient)(nil)

// RecettesClient client HTTP du service des recettes.
type RecettesClient struct {
	baseURL     string
	serviceName string
	httpClient  *http.Client
}

// NewRecettesClient construit le client.
func NewRecettesClient(baseURL, serviceName string, timeout time.Duration) *RecettesClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RecettesClient{
		baseURL:     baseURL,
		serviceName: serviceName,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// envelope enveloppe de réponse commune aux services internes.
type envelope struct {
	Succes  bool            `json:"succès"`
	Message string          `json:"message"`
	Donnees json.RawMessage `json:"données"`
}

// factureWire représentation réseau d'une facture côté recettes.
type factureWire struct {
	ID             string          `json:"id"`
	Numero         string          `json:"numéro"`
	ContribuableID string          `json:"contribuableId"`
	MontantTotal   decimal.Decimal `json:"montantTotal"`
	MontantPaye    decimal.Decimal `json:"montantPayé"`
	TauxPenalite   decimal.Decimal `json:"tauxPénalité"`
	DateEcheance   time.Time       `json:"dateÉchéance"`
	Statut         string          `json:"statut"`
	NbRelances     int             `json:"nbRelances"`
}

func (w *factureWire) toEntity() *entity.Facture {
	return &entity.Facture{
		ID:             w.ID,
		Numero:         w.Numero,
		ContribuableID: w.ContribuableID,
		MontantTotal:   w.MontantTotal,
		MontantPaye:    w.MontantPaye,
		TauxPenalite:   w.TauxPenalite,
		DateEcheance:   w.DateEcheance,
		Statut:         w.Statut,
		NbRelances:     w.NbRelances,
	}
}

func (c *RecettesClient) do(ctx context.Context, method, path string, body any) (*envelope, int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("recettes: sérialiser la requête: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("recettes: créer la requête HTTP: %w", err)
	}
	req.Header.Set("X-Internal-Service", c.serviceName)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("recettes: timeout ou annulation: %w", ctx.Err())
		}
		return nil, 0, fmt.Errorf("recettes: appel HTTP échoué: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("recettes: lire la réponse: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("recettes: déserialiser l'enveloppe: %w", err)
	}
	return &env, resp.StatusCode, nil
}

// GetFacture retourne la facture ou domain.ErrNotFound.
func (c *RecettesClient) GetFacture(ctx context.Context, id string) (*entity.Facture, error) {
	env, status, err := c.do(ctx, http.MethodGet, "/api/factures/"+id, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("facture %s: %w", id, domain.ErrNotFound)
	}
	if status != http.StatusOK || !env.Succes {
		return nil, fmt.Errorf("recettes: HTTP %d: %s: %w", status, env.Message, domain.ErrExternal)
	}

	var w factureWire
	if err := json.Unmarshal(env.Donnees, &w); err != nil {
		return nil, fmt.Errorf("recettes: déserialiser la facture: %w", err)
	}
	return w.toEntity(), nil
}

// ListImpayees retourne les factures non soldées: en attente de paiement ET
// partiellement payées — un acompte ne sort jamais une facture du
// recouvrement. Le filtre du service recettes ne prenant qu'un statut à la
// fois, un appel est émis par statut.
func (c *RecettesClient) ListImpayees(ctx context.Context, limit int) ([]*entity.Facture, error) {
	statuts := []string{entity.FactureStatusEnAttente, entity.FactureStatusPartielle}
	factures := make([]*entity.Facture, 0, limit)
	for _, statut := range statuts {
		reste := limit - len(factures)
		if reste <= 0 {
			break
		}
		page, err := c.listByStatut(ctx, statut, reste)
		if err != nil {
			return nil, err
		}
		factures = append(factures, page...)
	}
	return factures, nil
}

func (c *RecettesClient) listByStatut(ctx context.Context, statut string, limit int) ([]*entity.Facture, error) {
	path := fmt.Sprintf("/api/factures?statut=%s&limite=%d", url.QueryEscape(statut), limit)
	env, status, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || !env.Succes {
		return nil, fmt.Errorf("recettes: HTTP %d: %s: %w", status, env.Message, domain.ErrExternal)
	}

	var page struct {
		Rows []factureWire `json:"rows"`
	}
	if err := json.Unmarshal(env.Donnees, &page); err != nil {
		return nil, fmt.Errorf("recettes: déserialiser la liste de factures: %w", err)
	}

	factures := make([]*entity.Facture, 0, len(page.Rows))
	for i := range page.Rows {
		factures = append(factures, page.Rows[i].toEntity())
	}
	return factures, nil
}

// NotifierPaiement signale un encaissement (patch du montant payé).
func (c *RecettesClient) NotifierPaiement(ctx context.Context, factureID string, montantPaye decimal.Decimal) error {
	body := map[string]string{"montantPayé": montantPaye.StringFixed(2)}
	env, status, err := c.do(ctx, http.MethodPatch, "/api/factures/"+factureID+"/paiement", body)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return fmt.Errorf("facture %s: %w", factureID, domain.ErrNotFound)
	}
	if status != http.StatusOK || !env.Succes {
		return fmt.Errorf("recettes: HTTP %d: %s: %w", status, env.Message, domain.ErrExternal)
	}
	return nil
}

// RecalculerPenalites demande le recalcul mensuel des pénalités stockées.
func (c *RecettesClient) RecalculerPenalites(ctx context.Context) error {
	env, status, err := c.do(ctx, http.MethodPost, "/api/factures/calculer-pénalités", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK || !env.Succes {
		return fmt.Errorf("recettes: HTTP %d: %s: %w", status, env.Message, domain.ErrExternal)
	}
	return nil
}
