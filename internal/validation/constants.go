package validation

import "github.com/shopspring/decimal"

const (
	// String lengths
	MaxDescriptionLength = 500

	// Amount precision
	AmountScale int32 = 4
)

// MaxTransferAmount is the largest value a numeric(20,4) column holds.
var MaxTransferAmount = decimal.RequireFromString("9999999999999999.9999")
