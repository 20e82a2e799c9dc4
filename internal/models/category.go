package models

// Expense categories accepted by the API
const (
	CategoryFood           = "food"
	CategoryTransportation = "transportation"
	CategoryEntertainment  = "entertainment"
	CategoryUtilities      = "utilities"
	CategoryHealthcare     = "healthcare"
	CategoryShopping       = "shopping"
	CategoryEducation      = "education"
	CategoryTravel         = "travel"
	CategoryOther          = "other"

	// CategoryAll is the list filter value meaning "no category filter"
	CategoryAll = "all"
)

// AllCategories returns all valid category constants
func AllCategories() []string {
	return []string{
		CategoryFood,
		CategoryTransportation,
		CategoryEntertainment,
		CategoryUtilities,
		CategoryHealthcare,
		CategoryShopping,
		CategoryEducation,
		CategoryTravel,
		CategoryOther,
	}
}

// IsValidCategory checks if a category string is valid
func IsValidCategory(category string) bool {
	for _, validCategory := range AllCategories() {
		if category == validCategory {
			return true
		}
	}
	return false
}
