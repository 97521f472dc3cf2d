package core

import (
	"errors"
	"strings"
)

const (
	Income   TransactionKind = "income"
	Expense  TransactionKind = "expense"
	Transfer TransactionKind = "transfer"
)

// Sync states of an installment with respect to the spreadsheet export.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

type (
	TransactionKind string

	Account struct {
		ID           string
		Name         string
		InitialValue Money
		GroupID      string
		GroupName    string
	}

	AccountGroup struct {
		ID   string
		Name string
	}

	// Transaction is the persisted logical transaction a user entered.
	// Its installments are stored separately.
	Transaction struct {
		ID           string
		Description  string
		Kind         TransactionKind
		AccountID    string
		AccountOutID string
		Value        Money
		StartDate    Date
		Installments int
	}

	// NewTransaction is a logical transaction as entered by the user,
	// before expansion into dated installments.
	NewTransaction struct {
		Description  string
		Kind         TransactionKind
		AccountID    string
		AccountOutID string // populated only for transfers
		Value        Money
		StartDate    Date
		Installments int
	}

	Installment struct {
		ID              string
		TransactionID   string
		AccountID       string
		AccountOutID    string
		Kind            TransactionKind
		Value           Money
		Date            Date
		Description     string
		Number          int // 1-based index within the logical transaction
		SyncStatus      string
		SubTransactions []SubTransaction
	}

	// SubTransaction is a categorized fragment of a single installment's
	// value. At most one of CategoryID / SubCategoryID is set; both empty
	// means uncategorized. Values may be negative (refund adjustments).
	SubTransaction struct {
		ID            string
		Value         Money
		CategoryID    string
		SubCategoryID string
	}

	Category struct {
		ID            string
		Name          string
		SubCategories []SubCategory
	}

	SubCategory struct {
		ID         string
		Name       string
		CategoryID string
	}

	// TransactionType pairs the wire-level numeric type id with its
	// display name, matching the seeded transactions_type rows.
	TransactionType struct {
		ID   int
		Name string
		Kind TransactionKind
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidInstallments = errors.New("installment count must be at least 1")
	ErrInvalidKind         = errors.New("invalid transaction kind")
	ErrEmptyDescription    = errors.New("empty description")
	ErrMissingAccount      = errors.New("missing account reference")
	ErrTransferAccount     = errors.New("transfer requires a distinct destination account")
)

// TransactionTypes lists the closed set of transaction kinds with their
// numeric ids, in the order they are seeded.
func TransactionTypes() []TransactionType {
	return []TransactionType{
		{ID: 1, Name: "Receita", Kind: Income},
		{ID: 2, Name: "Despesa", Kind: Expense},
		{ID: 3, Name: "Transferência", Kind: Transfer},
	}
}

// KindFromID resolves a numeric transaction type id to its kind.
func KindFromID(id int) (TransactionKind, bool) {
	for _, t := range TransactionTypes() {
		if t.ID == id {
			return t.Kind, true
		}
	}
	return "", false
}

func (k TransactionKind) Valid() bool {
	switch k {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

// DisplayName returns the seeded pt-BR name for the kind.
func (k TransactionKind) DisplayName() string {
	for _, t := range TransactionTypes() {
		if t.Kind == k {
			return t.Name
		}
	}
	return string(k)
}

func (t NewTransaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrMissingAccount
	}
	if t.Kind == Transfer {
		if strings.TrimSpace(t.AccountOutID) == "" || t.AccountOutID == t.AccountID {
			return ErrTransferAccount
		}
	} else if t.AccountOutID != "" {
		return errors.New("destination account is only valid for transfers")
	}
	if err := t.Value.Validate(); err != nil {
		return err
	}
	if t.StartDate.IsZero() {
		return ErrInvalidDate
	}
	if t.Installments < 1 {
		return ErrInvalidInstallments
	}
	return nil
}

func (a Account) Validate() error {
	if len(strings.TrimSpace(a.Name)) == 0 {
		return errors.New("empty account name")
	}
	if len(a.Name) > 100 {
		return errors.New("account name too long (max 100 characters)")
	}
	return nil
}

// SumSubTransactions returns the combined value of the fragments. The
// parent installment value is recomputed from this sum whenever the
// fragments change; the sync is one-directional.
func SumSubTransactions(subs []SubTransaction) Money {
	var cents int64
	for _, st := range subs {
		cents += st.Value.Cents
	}
	return Money{Cents: cents}
}
