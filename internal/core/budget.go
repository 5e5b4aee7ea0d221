package core

// Default budget parameters, overridable through configuration.
const (
	DefaultPerPersonCents int64 = 1000   // $10.00 per expected attendee
	DefaultMaxBudgetCents int64 = 500000 // $5000.00 hard cap
)

// BudgetEstimate is the recommended funding budget derived from expected
// attendance. ActualCents is the calculated budget clamped to the cap.
type BudgetEstimate struct {
	Attendance      int   `json:"attendance"`
	PerPersonCents  int64 `json:"perPersonCents"`
	CalculatedCents int64 `json:"calculatedBudgetCents"`
	ActualCents     int64 `json:"actualBudgetCents"`
	MaxCents        int64 `json:"maxBudgetCents"`
	AtMax           bool  `json:"isAtMax"`
}

// EstimateBudget maps expected attendance to a recommended budget.
// Negative attendance is treated as 0, matching the form behavior where
// unparseable input collapses to 0.
func EstimateBudget(attendance int, perPersonCents, maxCents int64) BudgetEstimate {
	if attendance < 0 {
		attendance = 0
	}
	calculated := int64(attendance) * perPersonCents
	actual := calculated
	atMax := false
	if calculated >= maxCents {
		actual = maxCents
		atMax = true
	}
	return BudgetEstimate{
		Attendance:      attendance,
		PerPersonCents:  perPersonCents,
		CalculatedCents: calculated,
		ActualCents:     actual,
		MaxCents:        maxCents,
		AtMax:           atMax,
	}
}
