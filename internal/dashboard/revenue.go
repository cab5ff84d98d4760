package dashboard

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/famiglia/ops-console/internal/payments"
	"github.com/shopspring/decimal"
)

// revenueMonths is how many monthly buckets the overview chart keeps.
const revenueMonths = 6

// MonthlyRevenue is one bucket of the revenue chart.
type MonthlyRevenue struct {
	Label   string          `json:"month"`
	Year    int             `json:"year"`
	Month   int             `json:"monthNumber"`
	Revenue decimal.Decimal `json:"revenue"`
}

type monthKey struct {
	year  int
	month time.Month
}

func (k monthKey) before(other monthKey) bool {
	if k.year != other.year {
		return k.year < other.year
	}
	return k.month < other.month
}

// BucketMonthlyRevenue groups payments by calendar month in loc, ascending,
// keeping only the newest six buckets. Months without payments are absent.
func BucketMonthlyRevenue(points []payments.Point, loc *time.Location) []MonthlyRevenue {
	if loc == nil {
		loc = time.UTC
	}

	totals := make(map[monthKey]decimal.Decimal)
	for _, p := range points {
		local := p.PaidAt.In(loc)
		key := monthKey{year: local.Year(), month: local.Month()}
		totals[key] = totals[key].Add(p.Amount)
	}

	keys := make([]monthKey, 0, len(totals))
	for key := range totals {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })
	if len(keys) > revenueMonths {
		keys = keys[len(keys)-revenueMonths:]
	}

	out := make([]MonthlyRevenue, 0, len(keys))
	for _, key := range keys {
		out = append(out, MonthlyRevenue{
			Label:   fmt.Sprintf("%s %d", key.month.String()[:3], key.year),
			Year:    key.year,
			Month:   int(key.month),
			Revenue: totals[key],
		})
	}
	return out
}

// StartOfMonth is midnight on the first day of now's month in loc.
func StartOfMonth(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}

// ConversionRate is orders per active user as a percentage with one decimal,
// or 0 when nobody was active.
func ConversionRate(orders, activeUsers int64) float64 {
	if activeUsers <= 0 {
		return 0
	}
	return round1(float64(orders) / float64(activeUsers) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// averagePer is the rounded mean of total over count, 0 when count is 0.
func averagePer(total, count int64) int64 {
	if count <= 0 {
		return 0
	}
	return int64(math.Round(float64(total) / float64(count)))
}
