package enums

import "fmt"

// ReceiptStatus tracks whether a receipt is still being edited or has been
// confirmed (confirmed receipts publish a receipt.scanned event once).
type ReceiptStatus string

const (
	ReceiptStatusDraft     ReceiptStatus = "draft"
	ReceiptStatusConfirmed ReceiptStatus = "confirmed"
)

var validReceiptStatuses = []ReceiptStatus{
	ReceiptStatusDraft,
	ReceiptStatusConfirmed,
}

// String implements fmt.Stringer.
func (r ReceiptStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReceiptStatus.
func (r ReceiptStatus) IsValid() bool {
	for _, candidate := range validReceiptStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ItemSource records an item's provenance on a receipt.
type ItemSource string

const (
	ItemSourceOCR    ItemSource = "ocr"
	ItemSourceManual ItemSource = "manual"
)

var validItemSources = []ItemSource{
	ItemSourceOCR,
	ItemSourceManual,
}

// String implements fmt.Stringer.
func (s ItemSource) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ItemSource.
func (s ItemSource) IsValid() bool {
	for _, candidate := range validItemSources {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseItemSource converts raw input into an ItemSource.
func ParseItemSource(value string) (ItemSource, error) {
	for _, candidate := range validItemSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item source %q", value)
}
