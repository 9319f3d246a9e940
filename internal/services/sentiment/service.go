// Package sentiment scores news coverage with a keyword classifier.
package sentiment

import (
	"math"
	"strings"
	"time"

	"github.com/calebmills/argus/internal/common"
	"github.com/calebmills/argus/internal/interfaces"
	"github.com/calebmills/argus/internal/models"
)

// Classifier vocabulary. Matching is lowercase substring over title and
// summary, so "gains" and "gained" both count as "gain".
var positiveTerms = []string{
	"beat", "exceed", "strong", "growth", "profit", "revenue", "upgrade",
	"buy", "bullish", "positive", "gain", "rise", "surge", "boost",
	"outperform", "success", "expand", "increase", "good", "excellent",
}

var negativeTerms = []string{
	"miss", "decline", "loss", "drop", "fall", "downgrade", "sell",
	"bearish", "negative", "concern", "risk", "warn", "cut", "reduce",
	"underperform", "challenge", "problem", "issue", "bad", "poor",
}

// topicTerms feed the key-topic extraction
var topicTerms = []string{
	"earnings", "revenue", "profit", "loss", "acquisition", "merger",
	"product", "launch", "partnership", "investment", "expansion",
	"lawsuit", "regulation", "approval", "dividend", "stock split",
	"guidance", "forecast", "outlook", "upgrade", "downgrade",
}

const (
	maxTopics       = 10
	maxHeadlines    = 5
	maxHeadlineLen  = 100 // runes
	fullVolumeCount = 20  // articles for a full-strength impact score
)

// Service implements interfaces.SentimentService
type Service struct {
	logger *common.Logger
}

// NewService creates a new sentiment service
func NewService(logger *common.Logger) *Service {
	return &Service{logger: logger}
}

// Summarize scores the news flow for one symbol. Coverage older than a
// week is heavily discounted; no news at all reads as neutral.
func (s *Service) Summarize(items []*models.NewsItem) *models.SentimentSummary {
	summary := &models.SentimentSummary{
		Score:  50,
		Trend:  "neutral",
		Impact: 50,
		Count:  len(items),
	}
	if len(items) == 0 {
		return summary
	}

	now := time.Now()
	var total float64
	for _, item := range items {
		score := scoreItem(item)
		switch {
		case score > 50:
			summary.Positive++
		case score < 50:
			summary.Negative++
		default:
			summary.Neutral++
		}
		total += score * timeWeight(now, item.PublishedAt)
	}

	mean := total / float64(len(items))
	summary.Score = mean
	summary.Normalized = (mean - 50) / 50

	switch {
	case mean > 60:
		summary.Trend = "positive"
	case mean < 40:
		summary.Trend = "negative"
	}

	intensity := math.Abs(mean-50) / 50
	volume := math.Min(float64(len(items))/fullVolumeCount, 1)
	summary.Impact = 50 + intensity*volume*50

	summary.Topics = extractTopics(items)
	summary.Headlines = headlines(items)

	s.logger.Debug().
		Int("articles", len(items)).
		Float64("score", summary.Score).
		Str("trend", summary.Trend).
		Msg("Scored news sentiment")

	return summary
}

// scoreItem rates one article 0-100 from its keyword balance
func scoreItem(item *models.NewsItem) float64 {
	text := strings.ToLower(item.Title + " " + item.Summary)

	var positive, negative int
	for _, term := range positiveTerms {
		if strings.Contains(text, term) {
			positive++
		}
	}
	for _, term := range negativeTerms {
		if strings.Contains(text, term) {
			negative++
		}
	}

	switch {
	case positive > negative:
		return 70 + math.Min(float64(positive)*5, 30)
	case negative > positive:
		return 30 - math.Min(float64(negative)*5, 30)
	default:
		return 50
	}
}

// timeWeight discounts stale coverage: full weight on publication day,
// floor 0.1 from a week out. Age counts whole days.
func timeWeight(now, published time.Time) float64 {
	if published.IsZero() || published.After(now) {
		return 1
	}
	days := int(now.Sub(published).Hours() / 24)
	weight := 1 - float64(days)/7
	if weight < 0.1 {
		return 0.1
	}
	return weight
}

// extractTopics collects the first distinct topic terms appearing across
// the news flow, in article order
func extractTopics(items []*models.NewsItem) []string {
	var topics []string
	seen := make(map[string]bool)
	for _, item := range items {
		text := strings.ToLower(item.Title + " " + item.Summary)
		for _, term := range topicTerms {
			if len(topics) >= maxTopics {
				return topics
			}
			if seen[term] || !strings.Contains(text, term) {
				continue
			}
			seen[term] = true
			topics = append(topics, term)
		}
	}
	return topics
}

// headlines returns the leading titles, truncated for report display
func headlines(items []*models.NewsItem) []string {
	n := len(items)
	if n > maxHeadlines {
		n = maxHeadlines
	}
	out := make([]string, 0, n)
	for _, item := range items[:n] {
		title := item.Title
		if runes := []rune(title); len(runes) > maxHeadlineLen {
			title = string(runes[:maxHeadlineLen])
		}
		out = append(out, title)
	}
	return out
}

// Ensure Service implements SentimentService
var _ interfaces.SentimentService = (*Service)(nil)
