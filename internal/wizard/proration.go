package wizard

import "time"

// MonthUnit is one calendar month of a term's billing span.
type MonthUnit struct {
	Label     string `json:"label"`
	IsPast    bool   `json:"is_past"`
	IsCurrent bool   `json:"is_current"`
}

// Breakdown is the month-by-month fee projection for a term. It is
// derived on demand and never stored; billing overrides (custom total,
// prorated flag) live on the wizard data as explicit operator input.
type Breakdown struct {
	TotalMonths         int         `json:"total_months"`
	RemainingMonths     int         `json:"remaining_months"`
	TotalMonthlyFees    float64     `json:"total_monthly_fees"`
	ProratedMonthlyFees float64     `json:"prorated_monthly_fees"`
	FullYearTotal       float64     `json:"full_year_total"`
	ProratedTotal       float64     `json:"prorated_total"`
	IsMidYear           bool        `json:"is_mid_year"`
	Months              []MonthUnit `json:"months"`
}

// ComputeBreakdown walks every calendar month intersecting
// [start, end] and classifies each against today. Partially covered
// months count as full units: club billing is per school-term month,
// never per day. A zero start or end yields the empty breakdown.
func ComputeBreakdown(start, end time.Time, monthlyFee, enrollmentFee float64, today time.Time) Breakdown {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return Breakdown{}
	}
	if today.IsZero() {
		today = time.Now()
	}

	cursor := monthOf(start)
	last := monthOf(end)
	nowMonth := monthOf(today)

	var months []MonthUnit
	remaining := 0
	for !cursor.After(last) {
		unit := MonthUnit{
			Label:     cursor.Format("January 2006"),
			IsPast:    nowMonth.After(cursor),
			IsCurrent: nowMonth.Equal(cursor),
		}
		if !unit.IsPast {
			remaining++
		}
		months = append(months, unit)
		cursor = cursor.AddDate(0, 1, 0)
	}

	total := len(months)
	b := Breakdown{
		TotalMonths:         total,
		RemainingMonths:     remaining,
		TotalMonthlyFees:    float64(total) * monthlyFee,
		ProratedMonthlyFees: float64(remaining) * monthlyFee,
		IsMidYear:           remaining < total && remaining > 0,
		Months:              months,
	}
	b.FullYearTotal = enrollmentFee + b.TotalMonthlyFees
	b.ProratedTotal = enrollmentFee + b.ProratedMonthlyFees
	return b
}

// BillableTotal resolves the amount to bill for the given data: the
// operator's custom total wins, then the prorated total when the
// prorated flag is set, then the full total.
func BillableTotal(data Data, b Breakdown) float64 {
	if data.CustomTotal != nil {
		return *data.CustomTotal
	}
	if data.IsProrated {
		return b.ProratedTotal
	}
	return b.FullYearTotal
}

// monthOf normalises a date to the first instant of its calendar month
// in UTC, so month comparisons ignore day, time, and zone.
func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
