package collections

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
)

// frPrinter formate montants et nombres selon les conventions fr-FR.
var frPrinter = message.NewPrinter(language.French)

// FormatMontant rend un montant en FCFA avec séparateurs de milliers fr-FR.
func FormatMontant(m decimal.Decimal) string {
	f, _ := m.Float64()
	return frPrinter.Sprintf("%v FCFA", number.Decimal(f))
}

// FormatDate rend une date au format français jj/mm/aaaa.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// ComposeMessage construit le texte de relance adapté au canal.
func ComposeMessage(f *entity.Facture, c *entity.Contribuable, canal string) string {
	nom := c.NomComplet()
	montant := FormatMontant(f.MontantRestant())
	echeance := FormatDate(f.DateEcheance)

	if canal == entity.RelanceChannelSMS {
		return fmt.Sprintf(
			"MAIRIE: Cher(e) %s, votre facture N°%s d'un montant de %s est impayée depuis le %s. Régularisez rapidement pour éviter des pénalités.",
			nom, f.Numero, montant, echeance,
		)
	}

	return fmt.Sprintf(
		"Bonjour %s,\n\nVotre facture municipale N°%s (%s) est impayée depuis le %s.\n\nVeuillez régulariser votre situation le plus tôt possible.\n\nLa Mairie",
		nom, f.Numero, montant, echeance,
	)
}

// ComposeEmailSubject construit l'objet de l'email de relance.
func ComposeEmailSubject(f *entity.Facture) string {
	return fmt.Sprintf("RAPPEL URGENT - Facture %s impayée", f.Numero)
}

// ComposeEmailHTML construit le corps HTML de l'email de relance.
func ComposeEmailHTML(f *entity.Facture, c *entity.Contribuable) string {
	nom := c.NomComplet()
	montant := FormatMontant(f.MontantRestant())
	echeance := FormatDate(f.DateEcheance)

	return fmt.Sprintf(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto;border:1px solid #e0e0e0;border-radius:8px;overflow:hidden">
  <div style="background:#1a237e;color:white;padding:20px;text-align:center">
    <h2>MAIRIE - SERVICE DES RECETTES</h2>
    <p>AVIS DE RAPPEL DE PAIEMENT</p>
  </div>
  <div style="padding:30px">
    <p>Cher(e) <strong>%s</strong>,</p>
    <p>Nous vous informons que la facture municipale suivante est impayée&nbsp;:</p>
    <table style="width:100%%;border-collapse:collapse;margin:20px 0">
      <tr style="background:#f5f5f5"><td style="padding:10px;border:1px solid #ddd"><strong>N° Facture</strong></td><td style="padding:10px;border:1px solid #ddd">%s</td></tr>
      <tr><td style="padding:10px;border:1px solid #ddd"><strong>Montant dû</strong></td><td style="padding:10px;border:1px solid #ddd;color:#d32f2f"><strong>%s</strong></td></tr>
      <tr style="background:#f5f5f5"><td style="padding:10px;border:1px solid #ddd"><strong>Date d'échéance</strong></td><td style="padding:10px;border:1px solid #ddd">%s</td></tr>
    </table>
    <p style="color:#d32f2f">Passé un délai supplémentaire de 30 jours, des pénalités seront appliquées et une injonction de payer pourra être émise.</p>
    <p>Pour tout règlement ou information, contactez notre service financier.</p>
  </div>
  <div style="background:#f5f5f5;padding:15px;text-align:center;font-size:12px;color:#666">
    Mairie - Service de Recouvrement des Recettes Municipales
  </div>
</div>`, nom, f.Numero, montant, echeance)
}
