// Package contract produces the natural-language debt-recognition text
// stored immutably on a loan at creation time. The text generator is an
// external collaborator; FallbackText is the deterministic template used
// when it fails, so loan creation never blocks on it.
package contract

import (
	"context"
	"fmt"
	"strconv"
	"time"

	loanDomain "ckmoney-backend/internal/domain/loan"
)

type Generator interface {
	Generate(ctx context.Context, l *loanDomain.Loan) (string, error)
}

// Template is the in-repo Generator: it renders the fallback text directly
// and never fails.
type Template struct{}

func (Template) Generate(_ context.Context, l *loanDomain.Loan) (string, error) {
	return FallbackText(l), nil
}

const frDateLayout = "02/01/2006"

func formatDate(t time.Time) string { return t.Format(frDateLayout) }

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

func partyLine(civility, name, birthDate, birthPlace, address string) string {
	return fmt.Sprintf("%s %s, né(e) le %s à %s, résidant à %s",
		civility, name, orBlank(birthDate), orBlank(birthPlace), orBlank(address))
}

func orBlank(s string) string {
	if s == "" {
		return "___"
	}
	return s
}

// FallbackText renders the standardized contract: parties, principal, dates,
// the 1%-per-day late-penalty clause, the repayment-in-euros clause and the
// closing line.
func FallbackText(l *loanDomain.Loan) string {
	repaymentDateStr := formatDate(l.RepaymentDate)
	signedDate := l.CreatedAt
	if l.SignedDate != nil {
		signedDate = *l.SignedDate
	}

	return fmt.Sprintf(`RECONNAISSANCE DE DETTE (Standardisé)

ENTRE LES SOUSSIGNÉS :

LE PRÊTEUR :
%s

ET

L'EMPRUNTEUR :
%s

IL A ÉTÉ CONVENU ET ARRÊTÉ CE QUI SUIT :

1. OBJET DU PRÊT
Le Prêteur consent ce jour à l'Emprunteur un prêt d'un montant principal de %s %s.
L'Emprunteur reconnaît avoir reçu cette somme ce jour par virement ou remise d'espèces.

2. REMBOURSEMENT ET DEVISE
L'Emprunteur s'engage irrévocablement à rembourser la totalité de la somme susmentionnée au plus tard le %s.
Il est expressément convenu que bien que le prêt soit libellé en %s, le remboursement devra être effectué en EUROS (€) selon la contre-valeur au jour du paiement.

3. INTÉRÊTS ET PÉNALITÉS
Le présent prêt est consenti sans intérêts jusqu'à la date d'échéance.
Toutefois, en cas de défaut de paiement à la date indiquée (%s), une pénalité de retard de 1%% du montant principal sera appliquée par jour de retard, payable en Euros.

4. LOI APPLICABLE ET JURIDICTION
Le présent contrat est soumis au droit en vigueur dans le pays de signature. En cas de litige, les tribunaux compétents seront ceux du domicile du Prêteur.

Fait à %s, le %s en deux exemplaires originaux.`,
		partyLine(l.LenderCivility, l.LenderName, l.LenderBirthDate, l.LenderBirthPlace, l.LenderAddress),
		partyLine(l.BorrowerCivility, l.BorrowerName, l.BorrowerBirthDate, l.BorrowerBirthPlace, l.BorrowerAddress),
		formatAmount(l.Amount), l.Currency,
		repaymentDateStr,
		l.Currency,
		repaymentDateStr,
		orBlank(l.City), formatDate(signedDate),
	)
}
