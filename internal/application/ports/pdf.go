package ports

import (
	"context"

	"github.com/mairie-digitale/tresorerie-api/internal/domain/entity"
)

// ReceiptPDFGenerator produit la copie imprimable d'une quittance (A4, avec
// QR code portant la charge canonique signée). contribuable peut être nil si
// le registre est indisponible; le document omet alors le bloc d'identité.
type ReceiptPDFGenerator interface {
	GenerateReceiptPDF(ctx context.Context, r *entity.Receipt, contribuable *entity.Contribuable) ([]byte, error)
}
