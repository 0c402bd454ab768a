package matching

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"

	"github.com/elach8/hayvn-match/internal/domain"
)

// Candidate is one listing that passed every hard filter, with its score and
// the ordered reasons that explain it.
type Candidate struct {
	Listing *domain.Listing
	Score   int32
	Reasons []string
}

// Params are the caller-supplied knobs for one matcher run.
type Params struct {
	// IncludeClosed keeps sold listings in the pool. Off by default: closed
	// inventory is rarely worth an operator's review time.
	IncludeClosed bool
	// Limit caps the number of returned candidates. 0 = no cap.
	Limit int
}

// Matcher scores listings against a client's criteria. Match is pure: it
// reads nothing beyond its arguments and never mutates them, so it can be
// tested without any infrastructure.
type Matcher struct {
	weights Weights
}

func NewMatcher(w Weights) *Matcher {
	return &Matcher{weights: w}
}

// Match applies the hard filters, scores the survivors, and returns them
// ranked by descending score. Ties break by most recently listed first.
func (m *Matcher) Match(criteria *domain.Criteria, listings []*domain.Listing, params Params) []Candidate {
	var out []Candidate
	for _, l := range listings {
		if l == nil || !passesHardFilters(criteria, l, params.IncludeClosed) {
			continue
		}
		score, reasons := m.scoreOne(criteria, l)
		out = append(out, Candidate{Listing: l, Score: score, Reasons: reasons})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Listing.ListedAt.After(out[j].Listing.ListedAt)
	})

	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}
	return out
}

// passesHardFilters is the gate: a listing failing any one constraint is
// excluded entirely and never scored. Unknown numeric fields cannot satisfy
// a constraint, so they fail it.
func passesHardFilters(c *domain.Criteria, l *domain.Listing, includeClosed bool) bool {
	if !includeClosed && l.SourceStatus.Closed() {
		return false
	}
	if c.BudgetMin != nil {
		if l.Price == nil || *l.Price < *c.BudgetMin {
			return false
		}
	}
	if c.BudgetMax != nil {
		if l.Price == nil || *l.Price > *c.BudgetMax {
			return false
		}
	}
	if len(c.PreferredLocations) > 0 && !matchesPreferredLocation(c.PreferredLocations, l) {
		return false
	}
	if c.MinBeds != nil {
		if l.Beds == nil || *l.Beds < *c.MinBeds {
			return false
		}
	}
	if c.MinBaths != nil {
		if l.Baths == nil || *l.Baths < *c.MinBaths {
			return false
		}
	}
	if len(c.PropertyTypes) > 0 {
		accepted := false
		for _, t := range c.PropertyTypes {
			if normalizeToken(t) == normalizeToken(l.PropertyType) {
				accepted = true
				break
			}
		}
		if !accepted {
			return false
		}
	}
	return true
}

func matchesPreferredLocation(preferred []string, l *domain.Listing) bool {
	city := normalizeToken(l.City)
	area := normalizeToken(l.Neighborhood)
	for _, p := range preferred {
		tok := normalizeToken(p)
		if tok == "" {
			continue
		}
		if tok == city || (area != "" && tok == area) {
			return true
		}
	}
	return false
}

// scoreOne applies the bonuses in a fixed order so the resulting reasons
// list is order-stable: budget, location, beds, baths, deal style.
func (m *Matcher) scoreOne(c *domain.Criteria, l *domain.Listing) (int32, []string) {
	score := m.weights.Base
	var reasons []string

	if l.Price != nil && (c.BudgetMin != nil || c.BudgetMax != nil) {
		score += m.weights.WithinBudget
		reasons = append(reasons, "within budget")
		if c.BudgetMin != nil && c.BudgetMax != nil {
			mid := (*c.BudgetMin + *c.BudgetMax) / 2
			if *l.Price <= mid {
				score += m.weights.BudgetComfort
				reasons = append(reasons, "comfortably below budget midpoint")
			}
		}
	}

	if len(c.PreferredLocations) > 0 {
		city := normalizeToken(l.City)
		area := normalizeToken(l.Neighborhood)
		cityHit, areaHit := false, false
		for _, p := range c.PreferredLocations {
			tok := normalizeToken(p)
			if tok == "" {
				continue
			}
			if tok == city {
				cityHit = true
				break
			}
			if area != "" && tok == area {
				areaHit = true
			}
		}
		switch {
		case cityHit:
			score += m.weights.CityMatch
			reasons = append(reasons, fmt.Sprintf("matches preferred city: %s", l.City))
		case areaHit:
			score += m.weights.AreaMatch
			reasons = append(reasons, fmt.Sprintf("matches preferred area: %s", l.Neighborhood))
		}
	}

	if c.MinBeds != nil && l.Beds != nil {
		if *l.Beds > *c.MinBeds {
			score += m.weights.ExceedsBeds
			reasons = append(reasons, fmt.Sprintf("exceeds bed minimum: %d", *l.Beds))
		} else {
			score += m.weights.MeetsBeds
			reasons = append(reasons, "meets bed minimum")
		}
	}

	if c.MinBaths != nil && l.Baths != nil {
		if *l.Baths > *c.MinBaths {
			score += m.weights.ExceedsBaths
			reasons = append(reasons, fmt.Sprintf("exceeds bath minimum: %g", *l.Baths))
		} else {
			score += m.weights.MeetsBaths
			reasons = append(reasons, "meets bath minimum")
		}
	}

	if style := c.EffectiveDealStyle(); style != domain.DealStyleAny {
		if word, ok := matchSignalWord(l.Remarks, dealStyleSignals[style]); ok {
			score += m.weights.DealStyleSignal
			reasons = append(reasons, fmt.Sprintf("remarks suggest %s: %q", style, word))
		}
	}

	return score, reasons
}

// dealStyleSignals maps each deal style to the words and phrases that hint
// at it in listing remarks.
var dealStyleSignals = map[domain.DealStyle][]string{
	domain.DealStyleTurnkey:    {"turnkey", "turn-key", "move-in ready", "remodeled", "renovated", "updated"},
	domain.DealStyleFixer:      {"fixer", "fixer-upper", "tlc", "as-is", "handyman", "cosmetic"},
	domain.DealStyleValueAdd:   {"value-add", "potential", "opportunity", "expandable", "adu"},
	domain.DealStyleInvestment: {"investment", "rental", "income", "tenant", "cap rate", "cash flow"},
}

// matchSignalWord scans remarks for the first matching signal. Single words
// of five letters or more tolerate one edit, so feed typos like "fixxer"
// still register.
func matchSignalWord(remarks string, signals []string) (string, bool) {
	if remarks == "" || len(signals) == 0 {
		return "", false
	}
	text := strings.ToLower(remarks)
	tokens := tokenize(text)
	for _, sig := range signals {
		if strings.ContainsAny(sig, " -") {
			if strings.Contains(text, sig) {
				return sig, true
			}
			continue
		}
		for _, tok := range tokens {
			if tok == sig {
				return sig, true
			}
			if len(sig) >= 5 && levenshtein.ComputeDistance(tok, sig) <= 1 {
				return sig, true
			}
		}
	}
	return "", false
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
