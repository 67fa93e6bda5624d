package nutrition

import (
	"regexp"
	"strconv"
	"strings"
)

// Parser extracts a Record from cleaned label text. It holds no mutable
// state and is safe for concurrent use.
type Parser struct {
	patterns Patterns
}

// NewParser returns a Parser using the given patterns.
func NewParser(p Patterns) *Parser {
	return &Parser{patterns: p}
}

// Parse reads every known nutrient, the serving size and the servings per
// container from text. The first occurrence of a label wins; later
// duplicates are ignored. Parse never fails: unreadable rows are omitted and
// text without any recognizable label yields an empty Record.
func (p *Parser) Parse(text string) Record {
	rec := Record{nutrients: make(map[NutrientKey]NutrientValue)}

	for _, n := range p.patterns.nutrients {
		loc := n.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		value, ok := SafeFloat(text[loc[2]:loc[3]])
		if !ok {
			continue
		}
		nv := NutrientValue{Value: value}
		if len(loc) >= 6 && loc[4] >= 0 {
			nv.Unit = strings.ToLower(text[loc[4]:loc[5]])
		}
		if pct, ok := p.dailyValueAfter(text[loc[0]:]); ok {
			nv.DailyValuePercent = &pct
		}
		rec.nutrients[n.key] = nv
	}

	rec.serving = p.servingSize(text)
	rec.servingsPerContainer = p.servingsPerContainer(text)
	return rec
}

func (p *Parser) dailyValueAfter(rest string) (float64, bool) {
	if p.patterns.dailyValue == nil {
		return 0, false
	}
	m := p.patterns.dailyValue.FindStringSubmatch(rest)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (p *Parser) servingSize(text string) *ServingInfo {
	if p.patterns.servingSize == nil {
		return nil
	}
	m := p.patterns.servingSize.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	grams, err := strconv.Atoi(m[3])
	if err != nil {
		return nil
	}
	return &ServingInfo{
		Amount: strings.Join(strings.Fields(m[1]), ""),
		Unit:   m[2],
		Grams:  grams,
	}
}

func (p *Parser) servingsPerContainer(text string) *int {
	for _, re := range []*regexp.Regexp{p.patterns.servingsLeading, p.patterns.servingsTrailing} {
		if re == nil {
			continue
		}
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return &n
	}
	return nil
}
