// File: internal/runner/tags.go
package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// ErrInvalidTags is returned for a tag expression that cannot be translated.
var ErrInvalidTags = errors.New("invalid tag expression")

// maxTagClauses bounds the conjunctive form; "or" inside "and" multiplies.
const maxTagClauses = 64

// TranslateTags rewrites a cucumber tag expression such as
// "@smoke and not (@wip or @slow)" into the filter syntax godog evaluates:
// clauses joined by "&&", alternatives by ",", negation as "~@tag".
// An expression already written that way is returned unchanged.
func TranslateTags(expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", nil
	}
	toks := tokenizeTags(expr)
	keywords := lo.ContainsBy(toks, func(t string) bool {
		switch t {
		case "and", "or", "not", "(", ")":
			return true
		}
		return false
	})
	if !keywords {
		return passThroughTags(expr)
	}
	if strings.ContainsAny(expr, ",~&") {
		return "", fmt.Errorf("%w: %q mixes godog and cucumber syntax", ErrInvalidTags, expr)
	}

	p := &tagParser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidTags, expr, err)
	}
	if p.pos != len(p.toks) {
		return "", fmt.Errorf("%w: %q: unexpected %q", ErrInvalidTags, expr, p.toks[p.pos])
	}

	clauses, err := root.cnf(false)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidTags, expr, err)
	}
	return strings.Join(lo.Map(clauses, func(c []tagLiteral, _ int) string {
		return strings.Join(lo.Uniq(lo.Map(c, func(l tagLiteral, _ int) string { return l.String() })), ",")
	}), "&&"), nil
}

// passThroughTags accepts godog's own syntax after checking every tag.
func passThroughTags(expr string) (string, error) {
	for _, clause := range strings.Split(expr, "&&") {
		for _, tag := range strings.Split(clause, ",") {
			tag = strings.TrimPrefix(strings.TrimSpace(tag), "~")
			if !validTag(tag) {
				return "", fmt.Errorf("%w: %q: bad tag %q", ErrInvalidTags, expr, tag)
			}
		}
	}
	return expr, nil
}

func validTag(tag string) bool {
	return len(tag) > 1 && tag[0] == '@' && !strings.ContainsAny(tag[1:], "@,~&() \t")
}

func tokenizeTags(expr string) []string {
	var (
		toks []string
		cur  strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range expr {
		switch {
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

type tagLiteral struct {
	tag string
	neg bool
}

func (l tagLiteral) String() string {
	if l.neg {
		return "~" + l.tag
	}
	return l.tag
}

type tagNode struct {
	op   string // tag, not, and, or
	tag  string
	kids []*tagNode
}

// cnf returns the node, negated when neg is set, as a conjunction of
// disjunctions. Negation is pushed down to the tags.
func (n *tagNode) cnf(neg bool) ([][]tagLiteral, error) {
	switch n.op {
	case "tag":
		return [][]tagLiteral{{{tag: n.tag, neg: neg}}}, nil
	case "not":
		return n.kids[0].cnf(!neg)
	}

	conj := (n.op == "and") != neg
	out := [][]tagLiteral{}
	if !conj {
		out = [][]tagLiteral{{}}
	}
	for _, kid := range n.kids {
		clauses, err := kid.cnf(neg)
		if err != nil {
			return nil, err
		}
		if conj {
			out = append(out, clauses...)
		} else {
			var next [][]tagLiteral
			for _, a := range out {
				for _, b := range clauses {
					next = append(next, append(append([]tagLiteral{}, a...), b...))
				}
			}
			out = next
		}
		if len(out) > maxTagClauses {
			return nil, fmt.Errorf("expands to more than %d clauses", maxTagClauses)
		}
	}
	return out, nil
}

type tagParser struct {
	toks []string
	pos  int
}

func (p *tagParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *tagParser) parseOr() (*tagNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	node := &tagNode{op: "or", kids: []*tagNode{left}}
	for p.peek() == "or" {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		node.kids = append(node.kids, right)
	}
	if len(node.kids) == 1 {
		return left, nil
	}
	return node, nil
}

func (p *tagParser) parseAnd() (*tagNode, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	node := &tagNode{op: "and", kids: []*tagNode{left}}
	for p.peek() == "and" {
		p.pos++
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		node.kids = append(node.kids, right)
	}
	if len(node.kids) == 1 {
		return left, nil
	}
	return node, nil
}

func (p *tagParser) parseNot() (*tagNode, error) {
	tok := p.peek()
	switch {
	case tok == "":
		return nil, errors.New("unexpected end of expression")
	case tok == "not":
		p.pos++
		kid, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &tagNode{op: "not", kids: []*tagNode{kid}}, nil
	case tok == "(":
		p.pos++
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, errors.New("missing closing parenthesis")
		}
		p.pos++
		return inner, nil
	case validTag(tok):
		p.pos++
		return &tagNode{op: "tag", tag: tok}, nil
	default:
		return nil, fmt.Errorf("unexpected %q", tok)
	}
}
