package payment

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReference génère une référence de paiement lisible, pratiquement sans
// collision: horodatage milliseconde en base 36 plus un suffixe aléatoire.
// L'unicité reste garantie par la contrainte en base au moment de la
// persistance; l'appelant régénère en cas de conflit.
func NewReference() string {
	horodatage := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	return fmt.Sprintf("PAY-%s-%s", horodatage, randomSuffix(4))
}

func randomSuffix(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	out := make([]byte, n)
	for i, c := range b {
		out[i] = referenceCharset[int(c)%len(referenceCharset)]
	}
	return string(out)
}
