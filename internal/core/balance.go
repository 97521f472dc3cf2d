package core

// ComputeBalances derives the current balance of every account from its
// initial value plus the signed effect of each installment:
//
//	income   +value on the account
//	expense  -value on the account
//	transfer +value on the receiving account, -value on the source account
//
// Installments referencing accounts that are not in the slice contribute
// nothing. Accounts with no installments keep their initial value. The
// result has an entry for every account passed in, keyed by account id.
func ComputeBalances(accounts []Account, installments []Installment) map[string]Money {
	balances := make(map[string]int64, len(accounts))
	for _, a := range accounts {
		balances[a.ID] = a.InitialValue.Cents
	}

	for _, inst := range installments {
		switch inst.Kind {
		case Income:
			if _, ok := balances[inst.AccountID]; ok {
				balances[inst.AccountID] += inst.Value.Cents
			}
		case Expense:
			if _, ok := balances[inst.AccountID]; ok {
				balances[inst.AccountID] -= inst.Value.Cents
			}
		case Transfer:
			if _, ok := balances[inst.AccountID]; ok {
				balances[inst.AccountID] += inst.Value.Cents
			}
			if _, ok := balances[inst.AccountOutID]; ok {
				balances[inst.AccountOutID] -= inst.Value.Cents
			}
		}
	}

	result := make(map[string]Money, len(balances))
	for id, cents := range balances {
		result[id] = Money{Cents: cents}
	}
	return result
}

// TotalBalance sums the balances of all accounts.
func TotalBalance(balances map[string]Money) Money {
	var cents int64
	for _, b := range balances {
		cents += b.Cents
	}
	return Money{Cents: cents}
}
