package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	m "github.com/mouse-blink/weave/internal/model"
)

const injectMarker = "#@Inject"

// Annotation keys.
const (
	keyAt     = "at"
	keyTarget = "target"
	keyOffset = "offset"
	keyFrom   = "from"
	keyTo     = "to"
	keySearch = "search"
	keyPanic  = "panic"
	keyRaw    = "raw"
)

var commonKeys = []string{keyAt, keyTarget, keyPanic, keyRaw}

// modeKeys lists the keys each mode accepts besides commonKeys.
var modeKeys = map[m.Mode][]string{
	m.ModeHead:    {keyOffset},
	m.ModeTail:    {keyOffset},
	m.ModeSlice:   {keyFrom, keyTo},
	m.ModePrepend: {keySearch},
	m.ModeAppend:  {keySearch},
	m.ModeReplace: {keySearch},
}

type argument struct {
	key    string
	value  string
	quoted bool
	regex  bool
}

type annotation struct {
	text string
	line int
}

// ParseUnit extracts the directives of a mixin unit in declaration order.
// Functions without a preceding #@Inject annotation are helpers and are skipped.
func ParseUnit(unitPath m.Path, content []byte) (m.MixinUnit, error) {
	unit := m.MixinUnit{Path: unitPath}
	lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")

	var pending *annotation

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case strings.HasPrefix(trimmed, "namespace "):
			unit.Namespace = parseNamespace(trimmed)

		case strings.HasPrefix(trimmed, injectMarker):
			if pending != nil {
				return m.MixinUnit{}, &DirectiveSyntaxError{
					Location: m.Location{Unit: unitPath, Line: pending.line},
					Reason:   "annotation is not followed by a function definition",
				}
			}

			pending = &annotation{text: strings.TrimPrefix(trimmed, injectMarker), line: i + 1}

		case strings.HasPrefix(trimmed, "function "):
			name := functionName(trimmed)
			body, end, bodyErr := readBody(lines, i)

			if pending == nil {
				if bodyErr == nil {
					i = end
				}

				continue
			}

			loc := m.Location{Unit: unitPath, Definition: unit.Qualify(name), Line: pending.line}
			if name == "" {
				return m.MixinUnit{}, &DirectiveSyntaxError{Location: loc, Reason: "function definition has no name"}
			}

			if bodyErr != nil {
				return m.MixinUnit{}, &DirectiveSyntaxError{Location: loc, Reason: bodyErr.Error()}
			}

			directive, err := buildDirective(loc, pending.text, body)
			if err != nil {
				return m.MixinUnit{}, err
			}

			unit.Directives = append(unit.Directives, directive)
			pending = nil
			i = end
		}
	}

	if pending != nil {
		return m.MixinUnit{}, &DirectiveSyntaxError{
			Location: m.Location{Unit: unitPath, Line: pending.line},
			Reason:   "annotation is not followed by a function definition",
		}
	}

	return unit, nil
}

func parseNamespace(line string) string {
	s := strings.TrimSpace(strings.TrimPrefix(line, "namespace"))
	s = strings.TrimSuffix(s, "{")
	s = strings.TrimSpace(strings.TrimSuffix(s, ";"))

	return s
}

func functionName(line string) string {
	s := strings.TrimSpace(strings.TrimPrefix(line, "function"))
	s = strings.TrimPrefix(s, "&")

	if idx := strings.Index(s, "("); idx >= 0 {
		s = s[:idx]
	}

	return strings.TrimSpace(s)
}

// readBody returns the body lines of the function declared at lines[at] and
// the index of its closing line. The body ends at the first line that starts
// with "}" in column 0, so raw bodies may leave blocks open.
func readBody(lines []string, at int) ([]string, int, error) {
	header := strings.TrimSpace(lines[at])

	if open := strings.Index(header, "{"); open >= 0 && strings.HasSuffix(header, "}") {
		inner := strings.TrimSpace(header[open+1 : len(header)-1])
		if inner == "" {
			return nil, at, nil
		}

		return []string{inner}, at, nil
	}

	start := at + 1

	if !strings.Contains(header, "{") {
		for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
			start++
		}

		if start >= len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[start]), "{") {
			return nil, 0, errors.New("function definition has no opening brace")
		}

		start++
	}

	for end := start; end < len(lines); end++ {
		if strings.HasPrefix(lines[end], "}") {
			return lines[start:end], end, nil
		}
	}

	return nil, 0, errors.New("unterminated function definition: no closing brace in column 0")
}

func buildDirective(loc m.Location, text string, body []string) (m.Directive, error) {
	fail := func(format string, args ...any) (m.Directive, error) {
		return m.Directive{}, &DirectiveSyntaxError{Location: loc, Reason: fmt.Sprintf(format, args...)}
	}

	args, err := parseArguments(text)
	if err != nil {
		return fail("%v", err)
	}

	values := make(map[string]argument, len(args))

	for _, arg := range args {
		if _, dup := values[arg.key]; dup {
			return fail("duplicate key %q", arg.key)
		}

		values[arg.key] = arg
	}

	at, ok := values[keyAt]
	if !ok {
		return fail("missing required key %q", keyAt)
	}

	mode := m.Mode(strings.ToUpper(at.value))

	allowed, known := modeKeys[mode]
	if !known {
		return fail("unknown mode %q", at.value)
	}

	for key := range values {
		if !contains(commonKeys, key) && !contains(allowed, key) {
			if !isKnownKey(key) {
				return fail("unknown key %q", key)
			}

			return fail("key %q does not apply to %s", key, mode)
		}
	}

	d := m.Directive{Location: loc, Mode: mode, Panic: true}

	target, ok := values[keyTarget]
	if !ok {
		return fail("missing required key %q", keyTarget)
	}

	if d.Target, err = ParseAddress(target.value); err != nil {
		return fail("%v", err)
	}

	if d.Panic, err = boolArg(values, keyPanic, true); err != nil {
		return fail("%v", err)
	}

	if d.Raw, err = boolArg(values, keyRaw, false); err != nil {
		return fail("%v", err)
	}

	switch mode {
	case m.ModeHead, m.ModeTail:
		if d.Offset, err = intArg(values, keyOffset, 0); err != nil {
			return fail("%v", err)
		}

	case m.ModeSlice:
		_, hasFrom := values[keyFrom]
		_, hasTo := values[keyTo]

		if !hasFrom || !hasTo {
			return fail("%s requires both %q and %q", mode, keyFrom, keyTo)
		}

		if d.From, err = intArg(values, keyFrom, 0); err != nil {
			return fail("%v", err)
		}

		if d.To, err = intArg(values, keyTo, 0); err != nil {
			return fail("%v", err)
		}

		if d.From > d.To {
			return fail("from (%d) is greater than to (%d)", d.From, d.To)
		}

	case m.ModePrepend, m.ModeAppend, m.ModeReplace:
		search, ok := values[keySearch]
		if !ok || search.value == "" {
			return fail("%s requires a non-empty %q", mode, keySearch)
		}

		d.Search = m.Search{Expr: search.value, Regex: search.regex}

		if _, err := CompilePattern(d.Search); err != nil {
			return fail("%v", err)
		}
	}

	if d.Body, err = splitBody(body, d.Raw); err != nil {
		return fail("%v", err)
	}

	return d, nil
}

func isKnownKey(key string) bool {
	switch key {
	case keyAt, keyTarget, keyOffset, keyFrom, keyTo, keySearch, keyPanic, keyRaw:
		return true
	}

	return false
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}

	return false
}

func boolArg(values map[string]argument, key string, def bool) (bool, error) {
	arg, ok := values[key]
	if !ok {
		return def, nil
	}

	v, err := strconv.ParseBool(arg.value)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", key, arg.value)
	}

	return v, nil
}

func intArg(values map[string]argument, key string, def int) (int, error) {
	arg, ok := values[key]
	if !ok {
		return def, nil
	}

	v, err := strconv.Atoi(arg.value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, arg.value)
	}

	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", key, v)
	}

	return v, nil
}

// parseArguments scans `(key = value, ...)`. Values are "quoted" (with \"
// and \\ escapes), r"regex" (kept verbatim) or bare tokens.
func parseArguments(text string) ([]argument, error) {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "(") {
		return nil, errors.New("annotation is missing its argument list")
	}

	sc := &argScanner{src: s, pos: 1}

	var args []argument

	for {
		sc.skipSpaces()

		if sc.peek() == ')' && len(args) == 0 {
			sc.pos++
			break
		}

		arg, err := sc.argument()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		sc.skipSpaces()

		switch sc.peek() {
		case ',':
			sc.pos++
			continue
		case ')':
			sc.pos++
		case 0:
			return nil, errors.New("annotation is missing a closing ')'")
		default:
			return nil, fmt.Errorf("unexpected %q after value of %q", sc.peek(), arg.key)
		}

		break
	}

	if rest := strings.TrimSpace(sc.src[sc.pos:]); rest != "" {
		return nil, fmt.Errorf("unexpected text after annotation: %q", rest)
	}

	return args, nil
}

type argScanner struct {
	src string
	pos int
}

func (sc *argScanner) peek() byte {
	if sc.pos >= len(sc.src) {
		return 0
	}

	return sc.src[sc.pos]
}

func (sc *argScanner) skipSpaces() {
	for sc.pos < len(sc.src) && (sc.src[sc.pos] == ' ' || sc.src[sc.pos] == '\t') {
		sc.pos++
	}
}

func (sc *argScanner) argument() (argument, error) {
	start := sc.pos
	for sc.pos < len(sc.src) && sc.src[sc.pos] != '=' && sc.src[sc.pos] != ',' && sc.src[sc.pos] != ')' {
		sc.pos++
	}

	key := strings.TrimSpace(sc.src[start:sc.pos])
	if sc.peek() != '=' || key == "" {
		return argument{}, fmt.Errorf("expected key = value near %q", sc.src[start:sc.pos])
	}

	sc.pos++
	sc.skipSpaces()

	arg := argument{key: key}

	switch {
	case sc.peek() == '"':
		v, err := sc.quoted(false)
		if err != nil {
			return argument{}, fmt.Errorf("value of %q: %w", key, err)
		}

		arg.value, arg.quoted = v, true
	case sc.peek() == 'r' && sc.pos+1 < len(sc.src) && sc.src[sc.pos+1] == '"':
		sc.pos++

		v, err := sc.quoted(true)
		if err != nil {
			return argument{}, fmt.Errorf("value of %q: %w", key, err)
		}

		arg.value, arg.quoted, arg.regex = v, true, true
	default:
		begin := sc.pos
		for sc.pos < len(sc.src) && sc.src[sc.pos] != ',' && sc.src[sc.pos] != ')' {
			sc.pos++
		}

		arg.value = strings.TrimSpace(sc.src[begin:sc.pos])
		if arg.value == "" {
			return argument{}, fmt.Errorf("missing value for %q", key)
		}
	}

	return arg, nil
}

// quoted reads a double-quoted string starting at the opening quote.
func (sc *argScanner) quoted(verbatim bool) (string, error) {
	sc.pos++

	var b strings.Builder

	for sc.pos < len(sc.src) {
		c := sc.src[sc.pos]

		switch {
		case c == '\\' && sc.pos+1 < len(sc.src):
			next := sc.src[sc.pos+1]
			if verbatim || (next != '"' && next != '\\') {
				b.WriteByte(c)
			}

			b.WriteByte(next)
			sc.pos += 2

			continue
		case c == '"':
			sc.pos++
			return b.String(), nil
		}

		b.WriteByte(c)
		sc.pos++
	}

	return "", errors.New("unterminated string")
}
