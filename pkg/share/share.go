// Package share builds the WhatsApp hand-off link presented to the lender
// after a loan is created, so the paper contract can be sent to the borrower
// for signature.
package share

import (
	"fmt"
	"net/url"
	"strconv"
)

// Text is the pre-formatted message accompanying the contract.
func Text(borrowerName string, amount float64, currency string) string {
	return fmt.Sprintf(
		"Salut %s, voici la reconnaissance de dette pour le prêt de %s %s. Merci de l'imprimer et de la signer.",
		borrowerName, strconv.FormatFloat(amount, 'f', -1, 64), currency,
	)
}

// WhatsAppLink targets the borrower's phone when known (international
// format, no +), otherwise falls back to the generic share URL.
func WhatsAppLink(borrowerPhone, text string) string {
	if borrowerPhone != "" {
		return "https://wa.me/" + borrowerPhone + "?text=" + url.QueryEscape(text)
	}
	return "https://wa.me/?text=" + url.QueryEscape(text)
}
