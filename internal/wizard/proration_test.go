package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeBreakdownMonthCount(t *testing.T) {
	b := ComputeBreakdown(date(2024, time.September, 1), date(2024, time.December, 31), 50000, 20000, date(2024, time.September, 1))
	assert.Equal(t, 4, b.TotalMonths)
	require.Len(t, b.Months, 4)
	assert.Equal(t, "September 2024", b.Months[0].Label)
	assert.Equal(t, "December 2024", b.Months[3].Label)
}

func TestComputeBreakdownMidYear(t *testing.T) {
	b := ComputeBreakdown(date(2024, time.September, 1), date(2024, time.December, 31), 50000, 20000, date(2024, time.November, 15))

	assert.Equal(t, 4, b.TotalMonths)
	assert.Equal(t, 2, b.RemainingMonths, "November and December remain")
	assert.True(t, b.IsMidYear)
	assert.Equal(t, 100000.0, b.ProratedMonthlyFees)
	assert.Equal(t, 200000.0, b.TotalMonthlyFees)
	assert.Equal(t, 220000.0, b.FullYearTotal)
	assert.Equal(t, 120000.0, b.ProratedTotal)

	require.Len(t, b.Months, 4)
	assert.True(t, b.Months[0].IsPast)
	assert.True(t, b.Months[1].IsPast)
	assert.True(t, b.Months[2].IsCurrent)
	assert.False(t, b.Months[3].IsPast)
	assert.False(t, b.Months[3].IsCurrent)
}

func TestComputeBreakdownFullyLapsed(t *testing.T) {
	b := ComputeBreakdown(date(2024, time.September, 1), date(2024, time.December, 31), 50000, 20000, date(2025, time.January, 15))
	assert.Equal(t, 0, b.RemainingMonths)
	assert.False(t, b.IsMidYear, "a fully lapsed term is not mid-year")
	assert.Equal(t, 0.0, b.ProratedMonthlyFees)
}

func TestComputeBreakdownBeforeStart(t *testing.T) {
	b := ComputeBreakdown(date(2024, time.September, 1), date(2024, time.December, 31), 50000, 20000, date(2024, time.June, 10))
	assert.Equal(t, b.TotalMonths, b.RemainingMonths)
	assert.False(t, b.IsMidYear)
	for _, m := range b.Months {
		assert.False(t, m.IsPast)
		assert.False(t, m.IsCurrent)
	}
}

func TestComputeBreakdownPartialMonthsCountWhole(t *testing.T) {
	b := ComputeBreakdown(date(2024, time.September, 15), date(2024, time.December, 10), 50000, 0, date(2024, time.September, 1))
	assert.Equal(t, 4, b.TotalMonths, "partially covered months bill as full units")
}

func TestComputeBreakdownZeroFee(t *testing.T) {
	b := ComputeBreakdown(date(2024, time.September, 1), date(2024, time.December, 31), 0, 0, date(2024, time.November, 15))
	assert.Equal(t, 0.0, b.TotalMonthlyFees)
	assert.Equal(t, 0.0, b.ProratedMonthlyFees)
	assert.True(t, b.IsMidYear, "mid-year classification is date math, not fee math")
}

func TestComputeBreakdownMissingDates(t *testing.T) {
	assert.Equal(t, Breakdown{}, ComputeBreakdown(time.Time{}, date(2024, time.December, 31), 50000, 20000, date(2024, time.November, 15)))
	assert.Equal(t, Breakdown{}, ComputeBreakdown(date(2024, time.September, 1), time.Time{}, 50000, 20000, date(2024, time.November, 15)))
	assert.Equal(t, Breakdown{}, ComputeBreakdown(date(2024, time.December, 1), date(2024, time.September, 1), 50000, 20000, date(2024, time.November, 15)))
}

func TestComputeBreakdownSingleMonth(t *testing.T) {
	b := ComputeBreakdown(date(2024, time.September, 5), date(2024, time.September, 20), 50000, 0, date(2024, time.September, 10))
	assert.Equal(t, 1, b.TotalMonths)
	assert.Equal(t, 1, b.RemainingMonths)
	assert.False(t, b.IsMidYear)
	assert.True(t, b.Months[0].IsCurrent)
}

func TestBillableTotal(t *testing.T) {
	b := ComputeBreakdown(date(2024, time.September, 1), date(2024, time.December, 31), 50000, 20000, date(2024, time.November, 15))

	assert.Equal(t, 220000.0, BillableTotal(Data{}, b))
	assert.Equal(t, 120000.0, BillableTotal(Data{IsProrated: true}, b))

	custom := 90000.0
	assert.Equal(t, 90000.0, BillableTotal(Data{CustomTotal: &custom, IsProrated: true}, b), "custom total wins over both computed totals")
}
