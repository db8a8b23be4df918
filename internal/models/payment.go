package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the immutable record of one transfer.
type Payment struct {
	ID          int64           `gorm:"primaryKey" json:"id"`
	PayerID     int64           `gorm:"not null;index:idx_payments_pair,priority:1" json:"payerId"`
	RecipientID int64           `gorm:"not null;index:idx_payments_pair,priority:2" json:"recipientId"`
	Amount      decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"amount"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Timestamp   time.Time       `gorm:"column:created_at;not null;index:idx_payments_pair,priority:3" json:"timestamp"`

	Payer     *User `gorm:"foreignKey:PayerID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
	Recipient *User `gorm:"foreignKey:RecipientID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT" json:"-"`
}

// TransferRequest is the input of a ledger transfer.
type TransferRequest struct {
	PayerID     int64           `json:"payerId" validate:"required,gt=0"`
	RecipientID int64           `json:"recipientId" validate:"required,gt=0"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=500"`
}
