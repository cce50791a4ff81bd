package collections_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mairie-digitale/tresorerie-api/internal/application/collections"
	"github.com/mairie-digitale/tresorerie-api/internal/application/dto"
	"github.com/mairie-digitale/tresorerie-api/internal/domain"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/repository"
)

func newInjonctionUC(t *testing.T) (*collections.InjonctionUseCase, *fakeAuditRepo) {
	t.Helper()
	auditRepo := &fakeAuditRepo{}
	return collections.NewInjonctionUseCase(
		newFakeInjonctionRepo(), newFakeCounterRepo(), newTestRecorder(auditRepo), testLogger(),
	), auditRepo
}

func injonctionRequest() dto.CreateInjonctionRequest {
	return dto.CreateInjonctionRequest{
		ContribuableID: "ctb-201",
		FactureIDs:     []string{"fact-100", "fact-101"},
		MontantTotal:   decimal.NewFromInt(180000),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Création
// ──────────────────────────────────────────────────────────────────────────────

// Une injonction naît préparée, numérotée INJ-<année>-<séquence sur 5
// chiffres>, avec le délai légal de 30 jours par défaut.
func TestCreateInjonction(t *testing.T) {
	uc, auditRepo := newInjonctionUC(t)

	i, err := uc.Create("juriste-01", injonctionRequest())
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("INJ-%d-%05d", time.Now().Year(), 1), i.Numero)
	assert.Equal(t, entity.InjonctionStatusPreparee, i.Statut)
	assert.Equal(t, 30, i.DelaiReponse)
	assert.Equal(t, "juriste-01", i.CreePar)
	assert.Len(t, i.FactureIDs, 2)
	assert.Contains(t, auditRepo.actions(), "injonction_créée")

	// La séquence avance d'une unité par injonction.
	j, err := uc.Create("juriste-01", injonctionRequest())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("INJ-%d-%05d", time.Now().Year(), 2), j.Numero)
}

// Le délai de réponse fourni prime sur le défaut.
func TestCreateInjonction_DelaiExplicite(t *testing.T) {
	uc, _ := newInjonctionUC(t)

	in := injonctionRequest()
	in.DelaiReponse = 15
	in.Tribunal = "Tribunal de Grande Instance de Dakar"
	i, err := uc.Create("juriste-01", in)
	require.NoError(t, err)
	assert.Equal(t, 15, i.DelaiReponse)
	assert.Equal(t, "Tribunal de Grande Instance de Dakar", i.Tribunal)
}

// Sans facture, sans contribuable ou à montant non positif: refusée.
func TestCreateInjonction_EntreeInvalide(t *testing.T) {
	uc, _ := newInjonctionUC(t)

	in := injonctionRequest()
	in.FactureIDs = nil
	_, err := uc.Create("juriste-01", in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = injonctionRequest()
	in.MontantTotal = decimal.Zero
	_, err = uc.Create("juriste-01", in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Progression
// ──────────────────────────────────────────────────────────────────────────────

// Le chemin nominal: préparée → notifiée → en_cours_judiciaire → exécutée.
func TestUpdateStatus_CheminNominal(t *testing.T) {
	uc, _ := newInjonctionUC(t)
	i, err := uc.Create("juriste-01", injonctionRequest())
	require.NoError(t, err)

	i, err = uc.UpdateStatus("juriste-01", i.ID, dto.UpdateInjonctionStatutRequest{
		Statut: entity.InjonctionStatusNotifiee,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.InjonctionStatusNotifiee, i.Statut)
	require.NotNil(t, i.DateNotification, "la notification doit horodater l'injonction")

	i, err = uc.UpdateStatus("juriste-01", i.ID, dto.UpdateInjonctionStatutRequest{
		Statut:        entity.InjonctionStatusJudiciaire,
		NumeroAffaire: "RG-2026-0458",
	})
	require.NoError(t, err)
	assert.Equal(t, "RG-2026-0458", i.NumeroAffaire)

	i, err = uc.UpdateStatus("juriste-01", i.ID, dto.UpdateInjonctionStatutRequest{
		Statut: entity.InjonctionStatusExecutee,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.InjonctionStatusExecutee, i.Statut)
}

// Les sauts interdits du graphe sont refusés avec ErrTransition.
func TestUpdateStatus_TransitionsInterdites(t *testing.T) {
	uc, _ := newInjonctionUC(t)
	i, err := uc.Create("juriste-01", injonctionRequest())
	require.NoError(t, err)

	for _, cible := range []string{
		entity.InjonctionStatusJudiciaire, // saute notifiée
		entity.InjonctionStatusExecutee,
		entity.InjonctionStatusClassee,
	} {
		_, err := uc.UpdateStatus("juriste-01", i.ID, dto.UpdateInjonctionStatutRequest{Statut: cible})
		assert.ErrorIs(t, err, domain.ErrTransition, "préparée → %s doit être refusée", cible)
	}

	// Un statut hors nomenclature est une entrée invalide, pas une transition.
	_, err = uc.UpdateStatus("juriste-01", i.ID, dto.UpdateInjonctionStatutRequest{Statut: "suspendue"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// annulée est atteignable depuis tout statut non terminal, et terminale.
func TestUpdateStatus_Annulation(t *testing.T) {
	uc, _ := newInjonctionUC(t)

	for _, depuis := range []string{
		entity.InjonctionStatusPreparee,
		entity.InjonctionStatusNotifiee,
		entity.InjonctionStatusJudiciaire,
	} {
		i, err := uc.Create("juriste-01", injonctionRequest())
		require.NoError(t, err)

		if depuis != entity.InjonctionStatusPreparee {
			_, err = uc.UpdateStatus("juriste-01", i.ID, dto.UpdateInjonctionStatutRequest{
				Statut: entity.InjonctionStatusNotifiee,
			})
			require.NoError(t, err)
		}
		if depuis == entity.InjonctionStatusJudiciaire {
			_, err = uc.UpdateStatus("juriste-01", i.ID, dto.UpdateInjonctionStatutRequest{
				Statut: entity.InjonctionStatusJudiciaire,
			})
			require.NoError(t, err)
		}

		annulee, err := uc.UpdateStatus("juriste-01", i.ID, dto.UpdateInjonctionStatutRequest{
			Statut: entity.InjonctionStatusAnnulee,
			Notes:  "Régularisation amiable",
		})
		require.NoError(t, err, "annulation depuis %s", depuis)
		assert.Equal(t, entity.InjonctionStatusAnnulee, annulee.Statut)
		assert.Equal(t, "Régularisation amiable", annulee.Notes)

		// Terminal: plus aucune progression possible.
		_, err = uc.UpdateStatus("juriste-01", i.ID, dto.UpdateInjonctionStatutRequest{
			Statut: entity.InjonctionStatusNotifiee,
		})
		assert.ErrorIs(t, err, domain.ErrTransition)
	}
}

// Id inconnu sur progression et lecture.
func TestInjonction_Inconnue(t *testing.T) {
	uc, _ := newInjonctionUC(t)

	_, err := uc.UpdateStatus("juriste-01", "inexistante", dto.UpdateInjonctionStatutRequest{
		Statut: entity.InjonctionStatusNotifiee,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Get("inexistante")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// Le filtre par statut de la liste.
func TestInjonction_List(t *testing.T) {
	uc, _ := newInjonctionUC(t)

	i, err := uc.Create("juriste-01", injonctionRequest())
	require.NoError(t, err)
	_, err = uc.Create("juriste-01", injonctionRequest())
	require.NoError(t, err)
	_, err = uc.UpdateStatus("juriste-01", i.ID, dto.UpdateInjonctionStatutRequest{
		Statut: entity.InjonctionStatusNotifiee,
	})
	require.NoError(t, err)

	notifiees, err := uc.List(repository.InjonctionFilter{Statut: entity.InjonctionStatusNotifiee})
	require.NoError(t, err)
	assert.Len(t, notifiees, 1)

	toutes, err := uc.List(repository.InjonctionFilter{})
	require.NoError(t, err)
	assert.Len(t, toutes, 2)
}
