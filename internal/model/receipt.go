package model

import "github.com/shopspring/decimal"

// ReceiptCategories are the manual categories offered on upload.
var ReceiptCategories = []string{
	"Food", "Transport", "Shopping", "Entertainment", "Utilities", "Health", "Other",
}

// ReceiptItem is one extracted line item.
type ReceiptItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Quantity    int             `json:"quantity"`
	Category    string          `json:"category"`
}

// Receipt is an uploaded image and its OCR extraction.
type Receipt struct {
	ID            string          `json:"_id"`
	ImageURL      string          `json:"image_url"`
	UploadedAt    Time            `json:"uploaded_at"`
	MerchantName  string          `json:"merchant_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	DateExtracted Time            `json:"date_extracted"`
	Items         []ReceiptItem   `json:"items"`
	RawText       string          `json:"raw_text"`
}

// Date returns the extracted date, falling back to the upload time.
func (r Receipt) Date() Time {
	if !r.DateExtracted.IsZero() {
		return r.DateExtracted
	}
	return r.UploadedAt
}

// Merchant returns the merchant name or a placeholder.
func (r Receipt) Merchant() string {
	if r.MerchantName == "" {
		return "Unknown Merchant"
	}
	return r.MerchantName
}

// ParsedReceipt is the extraction echoed back by an upload.
type ParsedReceipt struct {
	MerchantName  string          `json:"merchant_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	DateExtracted Time            `json:"date_extracted"`
	Items         []ReceiptItem   `json:"items"`
	RawText       string          `json:"raw_text"`
}

// UploadResult is the response of POST /receipts/upload.
type UploadResult struct {
	Message    string        `json:"message"`
	ReceiptID  string        `json:"receipt_id"`
	ParsedData ParsedReceipt `json:"parsed_data"`
}
