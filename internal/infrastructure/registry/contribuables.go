package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mairie-digitale/tresorerie-api/internal/application/ports"
	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
)

var _ ports.ContribuableRegistry = (*ContribuablesClient)(nil)

// ContribuablesClient client HTTP du registre des contribuables (lecture seule).
type ContribuablesClient struct {
	baseURL     string
	serviceName string
	httpClient  *http.Client
}

// NewContribuablesClient construit le client.
func NewContribuablesClient(baseURL, serviceName string, timeout time.Duration) *ContribuablesClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ContribuablesClient{
		baseURL:     baseURL,
		serviceName: serviceName,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type contribuableWire struct {
	ID            string `json:"id"`
	Nom           string `json:"nom"`
	Prenom        string `json:"prénom"`
	RaisonSociale string `json:"raisonSociale"`
	Categorie     string `json:"catégorie"`
	Telephone     string `json:"téléphone"`
	Email         string `json:"email"`
}

// GetContribuable retourne le contribuable ou domain.ErrNotFound.
func (c *ContribuablesClient) GetContribuable(ctx context.Context, id string) (*entity.Contribuable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/contribuables/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("contribuables: créer la requête HTTP: %w", err)
	}
	req.Header.Set("X-Internal-Service", c.serviceName)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("contribuables: timeout ou annulation: %w", ctx.Err())
		}
		return nil, fmt.Errorf("contribuables: appel HTTP échoué: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
	if err != nil {
		return nil, fmt.Errorf("contribuables: lire la réponse: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("contribuable %s: %w", id, domain.ErrNotFound)
	}

	var env envelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, fmt.Errorf("contribuables: déserialiser l'enveloppe: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !env.Succes {
		return nil, fmt.Errorf("contribuables: HTTP %d: %s: %w", resp.StatusCode, env.Message, domain.ErrExternal)
	}

	var w contribuableWire
	if err := json.Unmarshal(env.Donnees, &w); err != nil {
		return nil, fmt.Errorf("contribuables: déserialiser le contribuable: %w", err)
	}
	return &entity.Contribuable{
		ID:            w.ID,
		Nom:           w.Nom,
		Prenom:        w.Prenom,
		RaisonSociale: w.RaisonSociale,
		Categorie:     w.Categorie,
		Telephone:     w.Telephone,
		Email:         w.Email,
	}, nil
}
