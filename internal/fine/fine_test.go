package fine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"libris/internal/fine"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDaysOverdue(t *testing.T) {
	due := day(2024, time.March, 10)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{name: "ReturnedEarly", end: day(2024, time.March, 8), want: 0},
		{name: "ReturnedOnDueDate", end: day(2024, time.March, 10), want: 0},
		{name: "LaterSameDay", end: time.Date(2024, time.March, 10, 23, 30, 0, 0, time.UTC), want: 0},
		{name: "NextDay", end: day(2024, time.March, 11), want: 1},
		{name: "NextDayEarlyMorning", end: time.Date(2024, time.March, 11, 0, 5, 0, 0, time.UTC), want: 1},
		{name: "FiveDaysLate", end: day(2024, time.March, 15), want: 5},
		{name: "AcrossMonthBoundary", end: day(2024, time.April, 2), want: 23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fine.DaysOverdue(due, tt.end))
		})
	}
}

func TestCalculate(t *testing.T) {
	due := day(2024, time.March, 10)

	policy := fine.Policy{
		PerDay:    decimal.RequireFromString("5.00"),
		GraceDays: 1,
		MaxFine:   decimal.RequireFromString("100.00"),
	}

	tests := []struct {
		name   string
		end    time.Time
		policy fine.Policy
		want   string
	}{
		{name: "NotOverdue", end: day(2024, time.March, 9), policy: policy, want: "0"},
		{name: "WithinGrace", end: day(2024, time.March, 11), policy: policy, want: "0"},
		// 5 days overdue, 1 grace day: (5-1) x 5.00 = 20.00.
		{name: "FiveDaysLate", end: day(2024, time.March, 15), policy: policy, want: "20.00"},
		{
			name: "ClampedToMaxFine",
			end:  day(2024, time.June, 10),
			policy: fine.Policy{
				PerDay:    decimal.RequireFromString("5.00"),
				GraceDays: 1,
				MaxFine:   decimal.RequireFromString("100.00"),
			},
			want: "100.00",
		},
		{
			name: "ZeroCapDisablesClamp",
			end:  day(2024, time.June, 10),
			policy: fine.Policy{
				PerDay:    decimal.RequireFromString("5.00"),
				GraceDays: 1,
				MaxFine:   decimal.Zero,
			},
			want: "455.00",
		},
		{
			name: "FractionalRateRoundsToCents",
			end:  day(2024, time.March, 13),
			policy: fine.Policy{
				PerDay:    decimal.RequireFromString("0.333"),
				GraceDays: 0,
				MaxFine:   decimal.RequireFromString("100.00"),
			},
			want: "1.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fine.Calculate(due, tt.end, tt.policy)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}
}

func TestCalculate_Properties(t *testing.T) {
	due := day(2024, time.January, 1)

	t.Run("MonotonicInDaysOverdue", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			policy := fine.Policy{
				PerDay:    decimal.New(rapid.Int64Range(1, 10000).Draw(rt, "perDay"), -2),
				GraceDays: rapid.IntRange(0, 30).Draw(rt, "grace"),
				MaxFine:   decimal.New(rapid.Int64Range(0, 100000).Draw(rt, "maxFine"), -2),
			}

			days := rapid.IntRange(0, 364).Draw(rt, "days")

			earlier := fine.Calculate(due, due.AddDate(0, 0, days), policy)
			later := fine.Calculate(due, due.AddDate(0, 0, days+1), policy)

			if later.LessThan(earlier) {
				rt.Fatalf("fine decreased: %d days -> %s, %d days -> %s",
					days, earlier, days+1, later)
			}
		})
	})

	t.Run("ZeroWithinGrace", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			grace := rapid.IntRange(0, 60).Draw(rt, "grace")
			days := rapid.IntRange(0, grace).Draw(rt, "days")

			policy := fine.Policy{
				PerDay:    decimal.New(rapid.Int64Range(1, 10000).Draw(rt, "perDay"), -2),
				GraceDays: grace,
			}

			got := fine.Calculate(due, due.AddDate(0, 0, days), policy)
			if !got.IsZero() {
				rt.Fatalf("expected zero fine for %d overdue days within %d grace, got %s", days, grace, got)
			}
		})
	})
}

func TestExplain(t *testing.T) {
	due := day(2024, time.March, 10)
	end := day(2024, time.March, 15)

	policy := fine.Policy{
		PerDay:    decimal.RequireFromString("5.00"),
		GraceDays: 1,
		MaxFine:   decimal.RequireFromString("100.00"),
	}

	b := fine.Explain(due, end, policy, decimal.RequireFromString("20.00"), false)

	assert.Equal(t, 5, b.DaysOverdue)
	assert.Equal(t, 4, b.ChargeableDays)
	assert.Equal(t, 1, b.GraceDays)
	assert.True(t, b.Computed.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, b.Stored.Equal(decimal.RequireFromString("20.00")))
	assert.False(t, b.Paid)
	assert.Contains(t, b.Formula, "5 days overdue")
	assert.Contains(t, b.Formula, "20.00")
}
