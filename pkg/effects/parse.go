package effects

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jwebster45206/inquest-engine/pkg/engineerr"
	"github.com/jwebster45206/inquest-engine/pkg/rules"
)

type listKeyword struct {
	add, remove Kind
}

var listKeywords = map[string]listKeyword{
	"clue":    {add: ClueAdd},
	"trigger": {add: TriggerAdd, remove: TriggerRemove},
	"item":    {add: ItemAdd, remove: ItemRemove},
	"block":   {add: BlockAdd},
	"spawn":   {add: Spawn},
	"move":    {add: Move},
	"위치이동":    {add: Move},
	"time":    {add: TimePass},
	"시간":      {add: TimePass},
}

// Parse reads an effect string. Malformed clauses are skipped and returned
// as errors; everything else is kept.
func Parse(raw string) (Program, []error) {
	p := &parser{src: rules.Normalize(raw)}
	return p.program()
}

// MustParse parses and drops malformed clauses.
func MustParse(raw string) Program {
	prog, _ := Parse(raw)
	return prog
}

type parser struct {
	src  string
	pos  int
	errs []error
}

func (p *parser) program() (Program, []error) {
	var prog Program
	for p.pos < len(p.src) {
		p.skipSpace()
		if desc, ok := p.description(); ok {
			prog.Description = desc
			break
		}
		raw := p.clauseText()
		if raw != "" {
			if e, err := parseClause(raw); err != nil {
				p.errs = append(p.errs, err)
			} else {
				prog.Effects = append(prog.Effects, e)
			}
		}
		p.accept(',')
	}
	return prog, p.errs
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return
		}
		p.pos += size
	}
}

func (p *parser) accept(b byte) bool {
	if p.pos < len(p.src) && p.src[p.pos] == b {
		p.pos++
		return true
	}
	return false
}

// description consumes a marker and the rest of the input.
func (p *parser) description() (string, bool) {
	rest := p.src[p.pos:]
	for _, m := range descriptionMarkers {
		if strings.HasPrefix(rest, m) {
			p.pos = len(p.src)
			return strings.TrimSpace(rest[len(m):]), true
		}
	}
	return "", false
}

// clauseText consumes up to the next comma or description marker.
func (p *parser) clauseText() string {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != ',' {
		if p.atMarker() {
			break
		}
		_, size := utf8.DecodeRuneInString(p.src[p.pos:])
		p.pos += size
	}
	return strings.TrimSpace(p.src[start:p.pos])
}

func (p *parser) atMarker() bool {
	rest := p.src[p.pos:]
	for _, m := range descriptionMarkers {
		if strings.HasPrefix(rest, m) {
			return true
		}
	}
	return false
}

func parseClause(raw string) (Effect, error) {
	idx := strings.IndexAny(raw, "+-")
	if idx <= 0 {
		return Effect{}, engineerr.Malformed(raw, "expected <name>+<value> or <name>-<value>")
	}
	keyword := rules.Fold(raw[:idx])
	sign := raw[idx]
	value := strings.TrimSpace(raw[idx+1:])
	if value == "" {
		return Effect{}, engineerr.Malformed(raw, "missing value")
	}

	if kw, ok := listKeywords[keyword]; ok {
		kind := kw.add
		if sign == '-' {
			kind = kw.remove
		}
		if kind == "" {
			return Effect{}, engineerr.Malformed(raw, "%s does not support %q", keyword, string(sign))
		}
		e := Effect{Kind: kind, Value: value, Raw: raw}
		if kind == TimePass {
			hours, err := strconv.Atoi(value)
			if err != nil || hours < 0 {
				return Effect{}, engineerr.Malformed(raw, "bad hour count %q", value)
			}
			e.Amount = hours
			e.Value = ""
		}
		return e, nil
	}

	if res, ok := rules.CanonicalResource(keyword); ok {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return Effect{}, engineerr.Malformed(raw, "bad amount %q", value)
		}
		if sign == '-' {
			n = -n
		}
		return Effect{Kind: StatChange, Stat: res, Amount: n, Raw: raw}, nil
	}

	return Effect{}, engineerr.Malformed(raw, "unknown effect %q", strings.TrimSpace(raw[:idx]))
}
