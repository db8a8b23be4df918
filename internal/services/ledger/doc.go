/*
Package ledger records peer-to-peer transfers and answers balance and history queries.

Every transfer is one atomic unit against the entity store:
- the unordered pair {payer, recipient} is locked
- both participants are materialized if unseen
- an immutable payment is inserted
- balance(payer, recipient) moves by -amount and balance(recipient, payer) by +amount

Usage:

	svc := ledger.NewService(repo, publisher, ledger.Config{}, metrics, log)

	payment, err := svc.RecordTransfer(ctx, models.TransferRequest{
	    PayerID:     1,
	    RecipientID: 2,
	    Amount:      decimal.RequireFromString("50"),
	    Description: "lunch",
	})

	balance, err := svc.GetBalance(ctx, 1, 2)          // -50
	history, err := svc.GetRecentTransactions(ctx, 1, 2, 10)

Error Handling:

All failures are *errors.LedgerError values classified as validation, conflict or storage.
Validation failures are detected before the store is touched.

Events:

After commit a payment.recorded event is handed to the Publisher. Publish failures are
logged and never reported to the caller.
*/
package ledger
