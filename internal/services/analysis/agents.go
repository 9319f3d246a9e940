package analysis

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"

	"github.com/calebmills/argus/internal/clients/gemini"
	"github.com/calebmills/argus/internal/models"
)

// Agent is one analyst persona consulted during the debate round.
type Agent struct {
	Name      string
	Role      string
	Expertise string
	Style     string
}

// The panel polled for every deep dive. Styles read as the completion of
// "an investor whose approach is: ...".
var agentPanel = []Agent{
	{
		Name:      "Buffett-School Value Investor",
		Role:      "long-term value analyst",
		Expertise: "fundamental analysis, moat assessment, long-term value discovery",
		Style:     "holding quality businesses with durable competitive advantages for the long term",
	},
	{
		Name:      "Munger Multidisciplinary Analyst",
		Role:      "mental-model analyst",
		Expertise: "bias recognition, statistical thinking, economic first principles",
		Style:     "applying cross-disciplinary mental models to spot market irrationality and let returns compound",
	},
	{
		Name:      "Growth Value Investor",
		Role:      "growth-value analyst",
		Expertise: "growth assessment, earnings forecasting, valuation models",
		Style:     "hunting undervalued growth stocks with an eye on future earnings power",
	},
	{
		Name:      "Market Timing Analyst",
		Role:      "market-cycle analyst",
		Expertise: "market timing, technical analysis, fund flows",
		Style:     "reading market cycles and entering or exiting as the cycle turns",
	},
	{
		Name:      "Risk Management Expert",
		Role:      "investment risk assessor",
		Expertise: "risk identification, portfolio management, asset allocation",
		Style:     "strict risk control, wide diversification, and capital preservation above all",
	},
}

// debate polls every persona concurrently and tallies their votes. The
// agent name doubles as the commentary caller so each persona sticks to
// its own credential. Failed agents are dropped from the tally.
func (s *Service) debate(ctx context.Context, analysis *models.StockAnalysis) ([]*models.AgentOpinion, *models.Consensus) {
	limit := s.cfg.MaxConcurrentAgents
	if limit <= 0 {
		limit = 3
	}
	if limit > len(agentPanel) {
		limit = len(agentPanel)
	}

	opinions := make([]*models.AgentOpinion, len(agentPanel))
	semaphore := make(chan struct{}, limit)

	var wg sync.WaitGroup
	for i, agent := range agentPanel {
		wg.Add(1)
		go func(i int, agent Agent) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error().
						Str("agent", agent.Name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", string(debug.Stack())).
						Msg("Recovered from panic in agent goroutine")
				}
			}()

			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			prompt := gemini.BuildAgentPrompt(agent.Name, agent.Style, analysis)
			text, err := s.commentary.Generate(ctx, agent.Name, prompt)
			if err != nil {
				s.logger.Warn().Err(err).
					Str("symbol", analysis.Symbol).
					Str("agent", agent.Name).
					Msg("Agent round failed")
				return
			}

			op := parseOpinion(text)
			op.Agent = agent.Name
			op.Style = agent.Style
			opinions[i] = op
		}(i, agent)
	}
	wg.Wait()

	kept := make([]*models.AgentOpinion, 0, len(opinions))
	for _, op := range opinions {
		if op != nil {
			kept = append(kept, op)
		}
	}
	if len(kept) == 0 {
		return nil, nil
	}

	return kept, tallyVotes(kept)
}

// parseOpinion extracts the labelled fields from an agent reply,
// tolerating markdown decoration around the labels. A reply with no
// recognisable DECISION line falls back to a zero-confidence HOLD.
func parseOpinion(text string) *models.AgentOpinion {
	op := &models.AgentOpinion{Stance: "HOLD"}

	inRationale := false
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)

		key, value := splitLabel(line)
		switch key {
		case "DECISION":
			op.Stance = parseStance(value)
			inRationale = false
		case "CONFIDENCE":
			op.Confidence = parseConfidence(value)
			inRationale = false
		case "TARGET":
			op.Target = parseTarget(value)
			inRationale = false
		case "RISK":
			op.Risk = value
			inRationale = false
		case "RATIONALE":
			op.Rationale = value
			inRationale = true
		default:
			// Rationale often wraps across lines.
			if inRationale && line != "" {
				if op.Rationale != "" {
					op.Rationale += " "
				}
				op.Rationale += line
			}
		}
	}

	return op
}

// splitLabel separates "LABEL: value" lines, cleaning markdown from both
// halves. Lines without a label return an empty key.
func splitLabel(line string) (string, string) {
	label, value, ok := strings.Cut(strings.TrimLeft(line, "*-# "), ":")
	if !ok {
		return "", ""
	}
	key := strings.ToUpper(strings.TrimSpace(strings.Trim(label, "* ")))
	switch key {
	case "DECISION", "CONFIDENCE", "TARGET", "RISK", "RATIONALE":
		return key, strings.TrimSpace(strings.Trim(value, "* \t"))
	}
	return "", ""
}

func parseStance(v string) string {
	v = strings.ToUpper(v)
	switch {
	case strings.Contains(v, "BUY"):
		return "BUY"
	case strings.Contains(v, "SELL"):
		return "SELL"
	default:
		return "HOLD"
	}
}

func parseConfidence(v string) float64 {
	f, ok := firstNumber(v)
	if !ok {
		return 0
	}
	return math.Max(0, math.Min(10, f))
}

func parseTarget(v string) *float64 {
	if strings.Contains(strings.ToUpper(v), "NONE") {
		return nil
	}
	f, ok := firstNumber(strings.ReplaceAll(v, ",", ""))
	if !ok || f <= 0 {
		return nil
	}
	return models.Float(f)
}

// firstNumber pulls the first decimal number out of a line of prose.
func firstNumber(s string) (float64, bool) {
	start := -1
	for i, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			if f, err := strconv.ParseFloat(strings.Trim(s[start:i], "."), 64); err == nil {
				return f, true
			}
			start = -1
		}
	}
	if start != -1 {
		if f, err := strconv.ParseFloat(strings.Trim(s[start:], "."), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// tallyVotes turns individual stances into a consensus call. Ties break
// toward HOLD, including an even BUY and SELL split.
func tallyVotes(opinions []*models.AgentOpinion) *models.Consensus {
	c := &models.Consensus{Votes: make(map[string]int)}

	var confidence float64
	for _, op := range opinions {
		c.Votes[op.Stance]++
		confidence += op.Confidence
	}
	c.AvgConfidence = confidence / float64(len(opinions))

	c.Decision = "HOLD"
	best := c.Votes["HOLD"]
	for _, stance := range []string{"BUY", "SELL"} {
		if c.Votes[stance] > best {
			c.Decision = stance
			best = c.Votes[stance]
		}
	}
	if c.Decision != "HOLD" && c.Votes["BUY"] == c.Votes["SELL"] {
		c.Decision = "HOLD"
	}

	switch ratio := float64(best) / float64(len(opinions)); {
	case ratio >= 0.8:
		c.Level = "strong"
	case ratio >= 0.6:
		c.Level = "moderate"
	default:
		c.Level = "split"
	}

	return c
}
