package ledger

// Operation names used in errors, logs and metrics
const (
	OpRecordTransfer        = "record_transfer"
	OpEnsureParticipant     = "ensure_participant"
	OpGetBalance            = "get_balance"
	OpGetRecentTransactions = "get_recent_transactions"
)

// Operation results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// History limits
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)
