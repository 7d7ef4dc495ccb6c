package enums

import "fmt"

// ExpenseCategory buckets household spending for budgets and quest matching.
type ExpenseCategory string

const (
	ExpenseCategoryGroceries     ExpenseCategory = "groceries"
	ExpenseCategoryDining        ExpenseCategory = "dining"
	ExpenseCategoryTransport     ExpenseCategory = "transport"
	ExpenseCategoryUtilities     ExpenseCategory = "utilities"
	ExpenseCategoryEntertainment ExpenseCategory = "entertainment"
	ExpenseCategoryHealth        ExpenseCategory = "health"
	ExpenseCategoryEducation     ExpenseCategory = "education"
	ExpenseCategoryOther         ExpenseCategory = "other"
)

var validExpenseCategories = []ExpenseCategory{
	ExpenseCategoryGroceries,
	ExpenseCategoryDining,
	ExpenseCategoryTransport,
	ExpenseCategoryUtilities,
	ExpenseCategoryEntertainment,
	ExpenseCategoryHealth,
	ExpenseCategoryEducation,
	ExpenseCategoryOther,
}

// String implements fmt.Stringer.
func (e ExpenseCategory) String() string {
	return string(e)
}

// IsValid reports whether the value is a known ExpenseCategory.
func (e ExpenseCategory) IsValid() bool {
	for _, candidate := range validExpenseCategories {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseExpenseCategory converts raw input into an ExpenseCategory.
func ParseExpenseCategory(value string) (ExpenseCategory, error) {
	for _, candidate := range validExpenseCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid expense category %q", value)
}
