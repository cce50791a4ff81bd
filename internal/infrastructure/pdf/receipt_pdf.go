// Package pdf implémente la copie imprimable d'une quittance de paiement.
//
// Mise en page A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  EN-TÊTE: Mairie + service  │  N° Quittance + Date           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CONTRIBUABLE: nom + identifiant                             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DÉTAIL: facture réglée, montant encaissé, émise par         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PIED: code de vérification + QR + mention légale            │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/mairie-digitale/tresorerie-api/internal/application/collections"
	"github.com/mairie-digitale/tresorerie-api/internal/application/ports"
	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
)

var _ ports.ReceiptPDFGenerator = (*MarotoReceiptGenerator)(nil)

var (
	colorPrimary = &props.Color{Red: 26, Green: 35, Blue: 126}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 211, Green: 47, Blue: 47}
)

// MarotoReceiptGenerator implémente ReceiptPDFGenerator avec Maroto v2.
type MarotoReceiptGenerator struct {
	communeName string
}

// NewMarotoReceiptGenerator construit le générateur. communeName apparaît
// dans l'en-tête du document.
func NewMarotoReceiptGenerator(communeName string) *MarotoReceiptGenerator {
	if communeName == "" {
		communeName = "MAIRIE"
	}
	return &MarotoReceiptGenerator{communeName: communeName}
}

// GenerateReceiptPDF génère le PDF et retourne ses octets.
func (g *MarotoReceiptGenerator) GenerateReceiptPDF(
	_ context.Context,
	r *entity.Receipt,
	contribuable *entity.Contribuable,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Quittance "+r.Numero, true).
		WithAuthor(g.communeName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(r))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(contribuableRow(contribuable))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(detailRows(r)...)
	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRows(r)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: générer le document: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: commune (gauche), numéro et date d'émission (droite).
func (g *MarotoReceiptGenerator) headerRow(r *entity.Receipt) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(g.communeName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Trésorerie municipale - Service des recettes", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("QUITTANCE DE PAIEMENT", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(r.Numero, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Émise le "+collections.FormatDate(r.DateEmission), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// contribuableRow: identité du payeur, si connue.
func contribuableRow(c *entity.Contribuable) core.Row {
	nom := "—"
	categorie := ""
	if c != nil {
		nom = c.NomComplet()
		categorie = c.Categorie
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CONTRIBUABLE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(nom, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(categorie, props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// detailRows: facture réglée et montant encaissé.
func detailRows(r *entity.Receipt) []core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Top: 1})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Top: 1})
	}

	rows := []core.Row{
		row.New(8).Add(
			col.New(4).Add(label("Facture réglée:")),
			col.New(8).Add(value(r.FactureID)),
		),
		row.New(8).Add(
			col.New(4).Add(label("Paiement:")),
			col.New(8).Add(value(r.PaymentID)),
		),
		row.New(12).Add(
			col.New(4).Add(text.New("MONTANT ENCAISSÉ:", props.Text{
				Style: fontstyle.Bold, Size: 11, Color: colorPrimary, Top: 2,
			})),
			col.New(8).Add(text.New(collections.FormatMontant(r.MontantPaye), props.Text{
				Style: fontstyle.Bold, Size: 11, Color: colorPrimary, Top: 2,
			})),
		),
		row.New(8).Add(
			col.New(4).Add(label("Émise par:")),
			col.New(8).Add(value(r.EmisePar)),
		),
	}

	if !r.EstValide {
		rows = append(rows, row.New(10).Add(col.New(12).Add(
			text.New("QUITTANCE RÉVOQUÉE - SANS VALEUR", props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Center,
				Color: colorAlert, Top: 2,
			}),
		)))
	}
	return rows
}

// footerRows: code de vérification publique, QR canonique et mention légale.
func footerRows(r *entity.Receipt) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("VÉRIFICATION D'AUTHENTICITÉ", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
		row.New(5).Add(col.New(12).Add(
			text.New("Code de vérification: "+r.CodeVerification, props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 1,
			}),
		)),
	}

	if r.CodeQR != "" {
		rows = append(rows, row.New(50).Add(
			col.New(4).Add(code.NewQr(r.CodeQR, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("Scannez le QR code ou saisissez le code de\nvérification sur le portail de la mairie pour\ncontrôler l'authenticité de cette quittance.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New("Document délivré par la\nTRÉSORERIE MUNICIPALE", props.Text{
					Style: fontstyle.Bold, Size: 10, Top: 26,
					Left: 3, Color: colorPrimary,
				}),
			),
		))
	}

	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(
			"Cette quittance atteste de l'encaissement du paiement indiqué. "+
				"Elle porte une signature d'intégrité vérifiable par le service émetteur. "+
				"Conservez ce document comme justificatif.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	)))
	return rows
}
