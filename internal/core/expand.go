package core

import "fmt"

// ExpandInstallments turns a logical transaction into its ordered sequence
// of dated installment records. Installment i (0-based) is dated i calendar
// months after the start date, carries the transaction's full value, and is
// numbered i+1. With more than one installment the description is suffixed
// "Parcela i/N".
//
// The full value is repeated per installment rather than divided by N,
// matching the product behavior for recurring charges.
//
// The function is pure: ids and persistence are the caller's concern.
func ExpandInstallments(tx NewTransaction) ([]Installment, error) {
	if tx.Installments < 1 {
		return nil, ErrInvalidInstallments
	}
	if tx.StartDate.IsZero() {
		return nil, ErrInvalidDate
	}

	installments := make([]Installment, 0, tx.Installments)
	for i := 0; i < tx.Installments; i++ {
		description := tx.Description
		if tx.Installments > 1 {
			description = fmt.Sprintf("%s - Parcela %d/%d", tx.Description, i+1, tx.Installments)
		}
		installments = append(installments, Installment{
			AccountID:    tx.AccountID,
			AccountOutID: tx.AccountOutID,
			Kind:         tx.Kind,
			Value:        tx.Value,
			Date:         tx.StartDate.AddMonths(i),
			Description:  description,
			Number:       i + 1,
		})
	}
	return installments, nil
}
