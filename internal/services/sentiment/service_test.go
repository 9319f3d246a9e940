package sentiment

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/models"
)

func newTestService() *Service {
	return NewService(common.NewLogger("error"))
}

func fresh(title string) *models.NewsItem {
	return &models.NewsItem{Title: title, PublishedAt: time.Now()}
}

func TestSummarize_NoNews(t *testing.T) {
	svc := newTestService()

	for _, items := range [][]*models.NewsItem{nil, {}} {
		summary := svc.Summarize(items)
		require.NotNil(t, summary)
		assert.Equal(t, 50.0, summary.Score)
		assert.Equal(t, "neutral", summary.Trend)
		assert.Equal(t, 50.0, summary.Impact)
		assert.Equal(t, 0, summary.Count)
		assert.Empty(t, summary.Topics)
		assert.Empty(t, summary.Headlines)
	}
}

func TestScoreItem(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  float64
	}{
		// beat, strong, growth
		{"positive", "Apple beats estimates with strong growth", 85},
		// warn, decline
		{"negative", "Shares tumble as management warns of declining margins", 20},
		// profit vs fall
		{"tie", "Profit falls for third quarter", 50},
		{"no keywords", "Quarterly report due Thursday", 50},
		{"positive saturates", "beat exceed strong growth profit revenue upgrade", 100},
		{"negative saturates", "miss decline loss drop fall downgrade sell", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreItem(&models.NewsItem{Title: tt.title})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreItem_UsesSummaryText(t *testing.T) {
	item := &models.NewsItem{
		Title:   "Quarterly report due Thursday",
		Summary: "Analysts expect the company to beat on strong growth.",
	}
	assert.Equal(t, 85.0, scoreItem(item))
}

func TestSummarize_PositiveFlow(t *testing.T) {
	svc := newTestService()
	items := []*models.NewsItem{
		fresh("Apple beats estimates with strong growth"),
		fresh("Analysts upgrade the stock on surging profit"),
	}

	summary := svc.Summarize(items)

	assert.InDelta(t, 85.0, summary.Score, 1e-9)
	assert.Equal(t, "positive", summary.Trend)
	assert.Equal(t, 2, summary.Positive)
	assert.Equal(t, 0, summary.Negative)
	assert.Equal(t, 0, summary.Neutral)
	assert.Equal(t, 2, summary.Count)
	assert.InDelta(t, 0.7, summary.Normalized, 1e-9)
	// 50 + 0.7 intensity * 0.1 volume * 50
	assert.InDelta(t, 53.5, summary.Impact, 1e-9)
}

func TestSummarize_MixedFlow(t *testing.T) {
	svc := newTestService()
	items := []*models.NewsItem{
		fresh("Profit falls for third quarter"),
		fresh("Regulators warn of mounting concerns"),
	}

	summary := svc.Summarize(items)

	// (50 + 20) / 2
	assert.InDelta(t, 35.0, summary.Score, 1e-9)
	assert.Equal(t, "negative", summary.Trend)
	assert.Equal(t, 0, summary.Positive)
	assert.Equal(t, 1, summary.Negative)
	assert.Equal(t, 1, summary.Neutral)
}

func TestSummarize_StaleNewsDiscounted(t *testing.T) {
	svc := newTestService()
	items := []*models.NewsItem{
		{
			Title:       "Apple beats estimates with strong growth",
			PublishedAt: time.Now().Add(-8 * 24 * time.Hour),
		},
	}

	summary := svc.Summarize(items)

	// item scores 85 but a week-old article carries only 0.1 weight
	assert.InDelta(t, 8.5, summary.Score, 1e-9)
	assert.Equal(t, "negative", summary.Trend)
	// the lean count reflects the unweighted read
	assert.Equal(t, 1, summary.Positive)
}

func TestTimeWeight(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		published time.Time
		want      float64
	}{
		{"same moment", now, 1},
		{"same day", now.Add(-23 * time.Hour), 1},
		{"one day", now.Add(-25 * time.Hour), 1 - 1.0/7},
		{"six days", now.Add(-145 * time.Hour), 1 - 6.0/7},
		{"one week", now.Add(-169 * time.Hour), 0.1},
		{"one month", now.AddDate(0, -1, 0), 0.1},
		{"unknown", time.Time{}, 1},
		{"future dated", now.Add(time.Hour), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, timeWeight(now, tt.published), 1e-9)
		})
	}
}

func TestSummarize_Topics(t *testing.T) {
	svc := newTestService()
	items := []*models.NewsItem{
		fresh("Record earnings and new product launch"),
		fresh("Merger approval expected this quarter"),
	}

	summary := svc.Summarize(items)

	assert.Equal(t, []string{"earnings", "product", "launch", "merger", "approval"}, summary.Topics)
}

func TestSummarize_TopicsCapped(t *testing.T) {
	svc := newTestService()
	items := []*models.NewsItem{
		fresh("earnings revenue profit loss acquisition merger product launch partnership investment expansion"),
	}

	summary := svc.Summarize(items)

	require.Len(t, summary.Topics, 10)
	assert.Equal(t, "investment", summary.Topics[9])
	assert.NotContains(t, summary.Topics, "expansion")
}

func TestSummarize_Headlines(t *testing.T) {
	svc := newTestService()
	items := []*models.NewsItem{
		fresh(strings.Repeat("a", 130)),
		fresh(strings.Repeat("é", 120)),
		fresh("Item 3"),
		fresh("Item 4"),
		fresh("Item 5"),
		fresh("Item 6"),
		fresh("Item 7"),
	}

	summary := svc.Summarize(items)

	require.Len(t, summary.Headlines, 5)
	assert.Equal(t, strings.Repeat("a", 100), summary.Headlines[0])
	// truncation counts runes, not bytes
	assert.Equal(t, strings.Repeat("é", 100), summary.Headlines[1])
	assert.Equal(t, "Item 5", summary.Headlines[4])
}
