package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is the cached net amount CounterpartyID owes OwnerID. Negative means the owner owes.
type Balance struct {
	OwnerID        int64           `gorm:"primaryKey;autoIncrement:false" json:"ownerId"`
	CounterpartyID int64           `gorm:"primaryKey;autoIncrement:false" json:"counterpartyId"`
	Amount         decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	Owner        *User `gorm:"foreignKey:OwnerID;constraint:OnDelete:RESTRICT" json:"-"`
	Counterparty *User `gorm:"foreignKey:CounterpartyID;constraint:OnDelete:RESTRICT" json:"-"`
}

// PairKey identifies a directed balance row.
type PairKey struct {
	OwnerID        int64
	CounterpartyID int64
}

func (b Balance) Key() PairKey {
	return PairKey{OwnerID: b.OwnerID, CounterpartyID: b.CounterpartyID}
}
