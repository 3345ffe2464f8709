package bot

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-analyze/charts"
	"gitlab.com/yelinaung/trip-ledger-bot/internal/ledger"
)

var errNothingToChart = errors.New("no spending to chart")

// GenerateCategoryChart creates a pie chart of spending per category.
// Categories without spending are left out. Returns PNG image as bytes.
func GenerateCategoryChart(statuses []ledger.CategoryStatus, title string) ([]byte, error) {
	var values []float64
	var names []string
	for _, s := range statuses {
		if !s.Spent.IsPositive() {
			continue
		}
		names = append(names, s.Category.Name)
		values = append(values, s.Spent.InexactFloat64())
	}
	if len(values) == 0 {
		return nil, errNothingToChart
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{Text: title}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf, nil
}

// chartFilename creates a filename like "chart_trip_7_2026-01-31.png".
func chartFilename(tripID int64, now time.Time) string {
	return fmt.Sprintf("chart_trip_%d_%s.png", tripID, now.Format("2006-01-02"))
}
