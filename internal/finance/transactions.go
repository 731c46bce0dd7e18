package finance

import "github.com/theirongolddev/tally/internal/model"

// Filter returns the rows whose description or category contains q,
// ignoring case. The input is not modified.
func Filter(txs []model.Transaction, q string) []model.Transaction {
	if q == "" {
		return txs
	}
	out := make([]model.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Matches(q) {
			out = append(out, tx)
		}
	}
	return out
}

// RemoveByID returns a copy of txs without the row whose ID is id.
// Only the first match is removed.
func RemoveByID(txs []model.Transaction, id string) []model.Transaction {
	out := make([]model.Transaction, 0, len(txs))
	removed := false
	for _, tx := range txs {
		if !removed && tx.ID == id {
			removed = true
			continue
		}
		out = append(out, tx)
	}
	return out
}

// RemoveReceipt returns a copy of receipts without id.
func RemoveReceipt(receipts []model.Receipt, id string) []model.Receipt {
	out := make([]model.Receipt, 0, len(receipts))
	for _, r := range receipts {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

// DeletePrompt is the confirmation shown before deleting tx.
func DeletePrompt(tx model.Transaction) string {
	if tx.IsReceipt() {
		return "Are you sure? This will delete the receipt and all associated items."
	}
	return "Are you sure you want to delete this transaction?"
}

// Messages shown after user actions.
const (
	MsgDeleteFailed        = "Failed to delete. It might already be gone."
	MsgDeleteReceipt       = "Are you sure? This will also remove associated expenses."
	MsgDeleteReceiptFailed = "Failed to delete receipt"
	MsgAddExpenseFailed    = "Failed to add expense"
	MsgUploadFailed        = "Upload failed. Please try again."
	MsgAdviceFailed        = "Failed to load advice. Please try again."
	MsgProfileSaved        = "Profile updated successfully!"
	MsgProfileSaveFailed   = "Failed to update profile."
	MsgExportFailed        = "Export failed"
	MsgNoBudget            = "No monthly budget set"
	MsgForecastGathering   = "Gathering Data..."
	MsgLoginFailed         = "Login failed. Check server logs."
)
