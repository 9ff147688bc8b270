package conditionals

import (
	"strconv"
	"strings"

	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
)

// Parse splits a condition string into clauses. Malformed clauses are skipped
// and reported in the returned error slice; the remaining clauses are usable.
// An empty string yields an empty Set.
func Parse(raw string) (Set, []error) {
	raw = rules.Normalize(raw)
	if raw == "" {
		return Set{}, nil
	}

	var (
		set  Set
		errs []error
	)
	for _, clause := range splitTopLevel(raw) {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		c, err := parseClause(clause)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		set = append(set, c)
	}
	if set == nil {
		set = Set{}
	}
	return set, errs
}

// MustParse parses a condition string and drops malformed clauses.
func MustParse(raw string) Set {
	set, _ := Parse(raw)
	return set
}

// splitTopLevel splits on commas outside [...] option groups.
func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func parseClause(raw string) (Condition, error) {
	c := Condition{Raw: raw}
	body := raw

	if open := strings.Index(body, "["); open >= 0 {
		if end := strings.Index(body[open:], "]"); end >= 0 {
			inner := body[open+1 : open+end]
			c.Options = splitOptions(inner)
			body = strings.TrimSpace(body[:open] + body[open+end+1:])
		} else {
			return c, engineerr.Malformed(raw, "unterminated option list")
		}
	}

	if strings.HasPrefix(body, "!") {
		c.Negated = true
		body = strings.TrimSpace(body[1:])
	}

	keyword, value, _ := strings.Cut(body, ":")
	kind, ok := kindsByKeyword[rules.Fold(keyword)]
	if !ok {
		return c, engineerr.Malformed(raw, "unknown condition type %q", strings.TrimSpace(keyword))
	}
	c.Kind = kind
	c.Value = strings.TrimSpace(value)

	if c.Value == "" && kind != KindForced {
		return c, engineerr.Malformed(raw, "missing value")
	}

	var err error
	switch kind {
	case KindItem, KindLocation:
		c.Names = splitAlternatives(c.Value)
	case KindStat:
		err = parseStat(&c)
	case KindInfect, KindCount:
		c.Compare, err = parseComparison(c.Value, OpEQ)
	case KindMember:
		c.Compare, err = parseComparison(c.Value, OpEQ)
	case KindTime:
		err = parseTimeRange(&c)
	case KindCost:
		err = parseCost(&c)
	case KindTrigger, KindBlock, KindLanguage, KindSkill, KindForced:
	}
	if err != nil {
		return c, engineerr.Malformed(raw, "%v", err)
	}
	return c, nil
}

func splitOptions(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ':' })
	opts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			opts = append(opts, f)
		}
	}
	return opts
}

func splitAlternatives(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseStat handles stat:<name>:<threshold> and stat:<name>:<min>-<max>.
func parseStat(c *Condition) error {
	name, req, ok := strings.Cut(c.Value, ":")
	if !ok {
		return errString("stat clause needs name:threshold")
	}
	stat, ok := rules.CanonicalStat(name)
	if !ok {
		return errString("unknown stat " + strconv.Quote(strings.TrimSpace(name)))
	}
	c.Stat = stat
	cmp, err := parseComparison(req, OpGTE)
	if err != nil {
		return err
	}
	c.Compare = cmp
	return nil
}

// parseComparison handles <n, >n, min-max and a bare n (bareOp).
func parseComparison(s string, bareOp Op) (Comparison, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "<"):
		n, err := atoi(s[1:])
		return Comparison{Op: OpLT, Min: n}, err
	case strings.HasPrefix(s, ">"):
		n, err := atoi(s[1:])
		return Comparison{Op: OpGT, Min: n}, err
	case strings.Contains(s, "-"):
		lo, hi, _ := strings.Cut(s, "-")
		min, err := atoi(lo)
		if err != nil {
			return Comparison{}, err
		}
		max, err := atoi(hi)
		if err != nil {
			return Comparison{}, err
		}
		return Comparison{Op: OpRange, Min: min, Max: max}, nil
	default:
		n, err := atoi(s)
		return Comparison{Op: bareOp, Min: n}, err
	}
}

// parseTimeRange handles HH:MM-HH:MM. The range may wrap midnight.
func parseTimeRange(c *Condition) error {
	start, end, ok := strings.Cut(c.Value, "-")
	if !ok {
		return errString("time clause needs HH:MM-HH:MM")
	}
	from, err := ParseClock(start)
	if err != nil {
		return err
	}
	to, err := ParseClock(end)
	if err != nil {
		return err
	}
	c.From, c.To = from, to
	return nil
}

// parseCost handles cost:<resource>:<amount>.
func parseCost(c *Condition) error {
	name, amount, ok := strings.Cut(c.Value, ":")
	if !ok {
		return errString("cost clause needs resource:amount")
	}
	res, ok := rules.CanonicalResource(name)
	if !ok {
		return errString("unknown resource " + strconv.Quote(strings.TrimSpace(name)))
	}
	n, err := atoi(amount)
	if err != nil {
		return err
	}
	c.Stat = res
	c.Amount = n
	return nil
}

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, errString("bad clock " + strconv.Quote(s))
	}
	h, err := atoi(hh)
	if err != nil {
		return 0, err
	}
	m, err := atoi(mm)
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, errString("clock out of range " + strconv.Quote(s))
	}
	return h*60 + m, nil
}

func atoi(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errString("bad number " + strconv.Quote(strings.TrimSpace(s)))
	}
	return n, nil
}

type errString string

func (e errString) Error() string { return string(e) }
