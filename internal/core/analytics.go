package core

// MonthlyAnalytics is the server-computed aggregate for one calendar month.
// The client treats it as a read-only projection keyed by (Year, Month).
type MonthlyAnalytics struct {
	Year              int                `json:"year"`
	Month             int                `json:"month"`
	TotalIncome       float64            `json:"total_income"`
	TotalExpense      float64            `json:"total_expense"`
	NetBalance        float64            `json:"net_balance"`
	SavingsPercentage float64            `json:"savings_percentage"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	TransactionCount  int                `json:"transaction_count"`
}

// SixMonthPoint is one point of the trailing six-month income/expense trend,
// ordered oldest to newest for chart rendering.
type SixMonthPoint struct {
	Month   string  `json:"month"`
	Year    int     `json:"year"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}
