package credit

import (
	"time"

	"github.com/google/uuid"
)

// TxType defines supported credit transaction types.
type TxType string

const (
	TxTypePurchase          TxType = "purchase"           // bought a credit pack
	TxTypeSpent             TxType = "spent"              // paid for a resource
	TxTypeSaleEarning       TxType = "sale_earning"       // creator payout
	TxTypeRefund            TxType = "refund"             // reversal granted by support
	TxTypeRegistrationBonus TxType = "registration_bonus" // signup gift
	TxTypePromoCode         TxType = "promo_code"         // promo redemption
	TxTypePurchaseBonus     TxType = "purchase_bonus"     // pack bonus credits
	TxTypeAdminGrant        TxType = "admin_grant"        // manual adjustment
)

// CreditType tags which pool(s) a transaction drew from or credited.
type CreditType string

const (
	CreditTypeFree  CreditType = "free"
	CreditTypePaid  CreditType = "paid"
	CreditTypeMixed CreditType = "mixed"
)

// Balances holds the two credit pools of one user.
type Balances struct {
	Free int `db:"free_credits_balance"`
	Paid int `db:"paid_credits_balance"`
}

// Total returns the spendable sum of both pools.
func (b Balances) Total() int {
	return b.Free + b.Paid
}

// TxMeta represents optional metadata attached to a credit transaction.
type TxMeta struct {
	RelatedEntityType *string
	RelatedEntityID   *string
	Description       string
}

// Pagination controls simple list pagination.
type Pagination struct {
	Limit  int
	Offset int
}

// SearchFilters provides admin-facing transaction filtering.
type SearchFilters struct {
	UserID            *string
	TxType            *string
	CreditType        *string
	DateFrom          *time.Time
	DateTo            *time.Time
	RelatedEntityType *string
	RelatedEntityID   *string
	Limit             int
	Offset            int
}

// CreditTransaction is an append-only ledger row. CreditsAmount is signed:
// positive rows credit a pool, negative rows debit. The sum of all rows for
// a user always equals that user's free+paid balance.
type CreditTransaction struct {
	ID                uuid.UUID  `db:"id"`
	UserID            uuid.UUID  `db:"user_id"`
	CreditsAmount     int        `db:"credits_amount"`
	TxType            TxType     `db:"tx_type"`
	CreditType        CreditType `db:"credit_type"`
	RelatedEntityType *string    `db:"related_entity_type"`
	RelatedEntityID   *string    `db:"related_entity_id"`
	Description       string     `db:"description"`
	CreatedAt         time.Time  `db:"created_at"`
}

func validTxType(t TxType) bool {
	switch t {
	case TxTypePurchase, TxTypeSpent, TxTypeSaleEarning, TxTypeRefund,
		TxTypeRegistrationBonus, TxTypePromoCode, TxTypePurchaseBonus, TxTypeAdminGrant:
		return true
	}
	return false
}

// creditTypeFor derives the pool tag from the split of a single operation.
func creditTypeFor(free, paid int) CreditType {
	switch {
	case free != 0 && paid != 0:
		return CreditTypeMixed
	case paid != 0:
		return CreditTypePaid
	default:
		return CreditTypeFree
	}
}
