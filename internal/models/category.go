package models

// TransferCategoryName is the reserved category that tags both legs of a
// transfer and initial deposits.
const TransferCategoryName = "Transfer"

// TransferCategoryFallbackID is used when a user has no Transfer category.
const TransferCategoryFallbackID = "cat_transfer_default"

// Category labels transactions.
type Category struct {
	Base
	Name     string `json:"name"`
	IconID   string `json:"icon_id"`
	IsIncome bool   `json:"is_income"`
}

// IsTransfer reports whether c is the reserved Transfer category.
func (c Category) IsTransfer() bool { return c.Name == TransferCategoryName }

// FindTransferCategory returns the first Transfer category in cats.
func FindTransferCategory(cats []Category) (Category, bool) {
	for _, c := range cats {
		if c.IsTransfer() {
			return c, true
		}
	}
	return Category{}, false
}
