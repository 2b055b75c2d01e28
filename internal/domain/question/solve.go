package question

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Solve evaluates a displayed question with the usual precedence:
// parentheses, then × and ÷, then + and -. Division must be exact.
func Solve(expr string) (int, error) {
	p := &solver{src: []rune(strings.ReplaceAll(expr, " ", ""))}
	v, err := p.sum()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("unexpected %q at %d in %q", p.src[p.pos], p.pos, expr)
	}
	return v, nil
}

type solver struct {
	src []rune
	pos int
}

func (p *solver) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *solver) sum() (int, error) {
	v, err := p.product()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return v, nil
		}
		p.pos++
		rhs, err := p.product()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			v += rhs
		} else {
			v -= rhs
		}
	}
}

func (p *solver) product() (int, error) {
	v, err := p.atom()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '×' && op != '÷' {
			return v, nil
		}
		p.pos++
		rhs, err := p.atom()
		if err != nil {
			return 0, err
		}
		if op == '×' {
			v *= rhs
			continue
		}
		if rhs == 0 || v%rhs != 0 {
			return 0, fmt.Errorf("inexact division %d ÷ %d", v, rhs)
		}
		v /= rhs
	}
}

func (p *solver) atom() (int, error) {
	if p.peek() == '(' {
		p.pos++
		v, err := p.sum()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing ) at %d", p.pos)
		}
		p.pos++
		return v, nil
	}
	start := p.pos
	for p.pos < len(p.src) && unicode.IsDigit(p.src[p.pos]) {
		p.pos++
	}
	n, err := strconv.Atoi(string(p.src[start:p.pos]))
	if err != nil {
		return 0, fmt.Errorf("bad number at %d: %w", start, err)
	}
	return n, nil
}
