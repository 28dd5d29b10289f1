package model

// CategoryType classifies a category node.
type CategoryType string

const (
	CategoryIncome   CategoryType = "income"
	CategoryExpense  CategoryType = "expense"
	CategoryTransfer CategoryType = "transfer"
)

// Category is a node in the category tree. ParentID 0 means top-level.
// The tree is owned by the store; the classifier only reads it.
type Category struct {
	ID       int
	Name     string
	Type     CategoryType
	ParentID int
}

// Rule is one entry in the ordered classification rule table.
// Exactly one of MCC or Pattern is set; rules with neither act as an
// explicit fallback. Order in the table is the only precedence.
type Rule struct {
	MCC        string // exact 4-digit merchant category code
	Pattern    string // case-insensitive substring or regex over the description
	CategoryID int
}
