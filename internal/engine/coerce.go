package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CoerceParams normalizes a loosely-typed parameter value into a
// map[string]any. Upstream agents emit parameters in whatever textual
// encoding they feel like, so a string input is run through a fixed
// sequence of parsers: JSON object, object-literal syntax, then
// key=value query pairs. The first parser that succeeds wins.
//
// Already-structured maps pass through untouched, the empty string
// becomes an empty map, and input that defeats every parser is returned
// unchanged so a stricter validator downstream can reject it precisely.
func CoerceParams(v any) any {
	switch s := v.(type) {
	case map[string]any:
		return s
	case string:
		if s == "" {
			return map[string]any{}
		}
		for _, parse := range paramParsers {
			if m, ok := parse(s); ok {
				return m
			}
		}
		return s
	default:
		return v
	}
}

// Each parser is a pure attempt: (result, true) on success, (nil, false)
// when the input is not in its format. No parser panics.
var paramParsers = []func(string) (map[string]any, bool){
	parseJSONObject,
	parseLiteralMap,
	parseQueryPairs,
}

// parseJSONObject accepts well-formed JSON whose top-level value is an
// object. A top-level array, number or string is not a success.
func parseJSONObject(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, false
	}
	if m == nil {
		return nil, false
	}
	return m, true
}

// parseQueryPairs handles "screenshot=true&wait=3000" style input.
// Values coerce case-insensitive true/false to bool and all-digit runs
// to int; keys stay verbatim. Pairs without '=' are skipped, duplicate
// keys keep the last occurrence. Deliberately no percent-decoding and
// no splitting past the first '=': callers may depend on those exact
// semantics.
func parseQueryPairs(s string) (map[string]any, bool) {
	if !strings.Contains(s, "=") {
		return nil, false
	}
	params := map[string]any{}
	for _, pair := range strings.Split(s, "&") {
		if !strings.Contains(pair, "=") {
			continue
		}
		kv := strings.SplitN(pair, "=", 2)
		key, value := kv[0], kv[1]
		switch {
		case strings.EqualFold(value, "true"):
			params[key] = true
		case strings.EqualFold(value, "false"):
			params[key] = false
		case isAllDigits(value):
			if n, err := strconv.Atoi(value); err == nil {
				params[key] = n
			} else {
				params[key] = value // digit run too long for int
			}
		default:
			params[key] = value
		}
	}
	return params, true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FlattenParams re-serializes nested values to JSON text. The wire
// format is a URL query string, which cannot carry structure; the
// receiving service re-parses these values itself.
func FlattenParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		switch v.(type) {
		case map[string]any, []any:
			data, err := json.Marshal(v)
			if err != nil {
				out[k] = fmt.Sprint(v)
				continue
			}
			out[k] = string(data)
		default:
			out[k] = v
		}
	}
	return out
}

// --- object-literal parsing ---

// parseLiteralMap accepts object-literal syntax with single or double
// quoted strings, bareword booleans in either casing, None/null, nested
// maps and lists, and trailing commas. Only attempted when the trimmed
// input is brace-delimited.
func parseLiteralMap(s string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return nil, false
	}
	p := &litParser{src: trimmed}
	m, err := p.parseMap()
	if err != nil {
		return nil, false
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, false
	}
	return m, true
}

type litParser struct {
	src string
	pos int
}

func (p *litParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *litParser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *litParser) expect(c byte) error {
	b, ok := p.peek()
	if !ok || b != c {
		return fmt.Errorf("literal: expected %q at %d", c, p.pos)
	}
	p.pos++
	return nil
}

func (p *litParser) parseMap() (map[string]any, error) {
	if err := p.expect('{'); err != nil {
		return nil, err
	}
	m := map[string]any{}
	for {
		p.skipSpace()
		b, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("literal: unterminated map")
		}
		if b == '}' {
			p.pos++
			return m, nil
		}
		key, err := p.parseString()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		m[key] = val
		p.skipSpace()
		b, ok = p.peek()
		if !ok {
			return nil, fmt.Errorf("literal: unterminated map")
		}
		switch b {
		case ',':
			p.pos++ // trailing comma before '}' is fine
		case '}':
		default:
			return nil, fmt.Errorf("literal: expected ',' or '}' at %d", p.pos)
		}
	}
}

func (p *litParser) parseList() ([]any, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}
	list := []any{}
	for {
		p.skipSpace()
		b, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("literal: unterminated list")
		}
		if b == ']' {
			p.pos++
			return list, nil
		}
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		list = append(list, val)
		p.skipSpace()
		b, ok = p.peek()
		if !ok {
			return nil, fmt.Errorf("literal: unterminated list")
		}
		switch b {
		case ',':
			p.pos++
		case ']':
		default:
			return nil, fmt.Errorf("literal: expected ',' or ']' at %d", p.pos)
		}
	}
}

func (p *litParser) parseValue() (any, error) {
	p.skipSpace()
	b, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("literal: unexpected end of input")
	}
	switch {
	case b == '{':
		return p.parseMap()
	case b == '[':
		return p.parseList()
	case b == '\'' || b == '"':
		return p.parseString()
	case b == '-' || b == '+' || (b >= '0' && b <= '9'):
		return p.parseNumber()
	default:
		return p.parseBareword()
	}
}

func (p *litParser) parseString() (string, error) {
	quote, ok := p.peek()
	if !ok || (quote != '\'' && quote != '"') {
		return "", fmt.Errorf("literal: expected string at %d", p.pos)
	}
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return "", fmt.Errorf("literal: dangling escape")
			}
			esc := p.src[p.pos]
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case '0':
				b.WriteByte(0)
			case 'u':
				if p.pos+4 >= len(p.src) {
					return "", fmt.Errorf("literal: short \\u escape")
				}
				n, err := strconv.ParseUint(p.src[p.pos+1:p.pos+5], 16, 32)
				if err != nil {
					return "", fmt.Errorf("literal: bad \\u escape: %w", err)
				}
				b.WriteRune(rune(n))
				p.pos += 4
			default:
				// \' \" \\ and anything unknown pass through verbatim
				b.WriteByte(esc)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("literal: unterminated string")
}

func (p *litParser) parseNumber() (any, error) {
	start := p.pos
	if b, ok := p.peek(); ok && (b == '-' || b == '+') {
		p.pos++
	}
	isFloat := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' || c == 'e' || c == 'E' {
			isFloat = true
			p.pos++
			continue
		}
		if (c == '-' || c == '+') && isFloat {
			// exponent sign
			p.pos++
			continue
		}
		break
	}
	text := p.src[start:p.pos]
	if text == "" || text == "-" || text == "+" {
		return nil, fmt.Errorf("literal: bad number at %d", start)
	}
	if !isFloat {
		if n, err := strconv.Atoi(text); err == nil {
			return n, nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("literal: bad number %q", text)
	}
	return f, nil
}

func (p *litParser) parseBareword() (any, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			p.pos++
			continue
		}
		break
	}
	switch p.src[start:p.pos] {
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	case "None", "null":
		return nil, nil
	default:
		return nil, fmt.Errorf("literal: unknown token at %d", start)
	}
}
