package translator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spektr-org/campusmap/engine"
	"github.com/spektr-org/campusmap/schema"
)

// ============================================================================
// SELECTION PARSER — Rule-based Translator
// ============================================================================
// Accepted forms (mixable in one line, case-insensitive):
//   ma necta blue
//   state=MA attribute=NECTA scheme=Blue
//   state:ma color:purple
//   {"state": "ma", "attribute": "Locale"}
// Bare tokens are tried as attribute, then scheme, then state.
// ============================================================================

// Parser resolves input against fixed control values.
type Parser struct {
	states     map[string]string // lower → canonical
	attributes map[string]string
	schemes    map[string]string
}

// NewParser builds a Parser from the selection controls. sch may be nil;
// when given, attribute display names are accepted as aliases.
func NewParser(controls engine.Controls, sch *schema.Config) *Parser {
	p := &Parser{
		states:     lowerIndex(controls.States),
		attributes: lowerIndex(controls.Attributes),
		schemes:    lowerIndex(controls.Schemes),
	}
	if sch != nil {
		for _, a := range sch.Attributes {
			if _, ok := p.attributes[strings.ToLower(a.Key)]; !ok {
				continue
			}
			if a.DisplayName != "" {
				p.attributes[strings.ToLower(a.DisplayName)] = a.Key
			}
		}
	}
	return p
}

func lowerIndex(values []string) map[string]string {
	m := make(map[string]string, len(values))
	for _, v := range values {
		m[strings.ToLower(v)] = v
	}
	return m
}

// Translate applies input on top of current.
func (p *Parser) Translate(input string, current engine.Selection) (*TranslateResult, error) {
	input = cleanInput(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty input", ErrUnrecognized)
	}

	var fields map[string]string
	var bare []string
	if strings.HasPrefix(input, "{") {
		var err error
		if fields, err = decodeJSON(input); err != nil {
			return nil, err
		}
	} else {
		fields, bare = splitTokens(input)
	}

	sel := current
	changed := make(map[string]bool)
	apply := func(kind, value string) {
		switch kind {
		case "state":
			sel.State = value
		case "attribute":
			sel.Attribute = value
		case "scheme":
			sel.Scheme = value
		}
		changed[kind] = true
	}

	for key, value := range fields {
		kind, ok := fieldKind(key)
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q", ErrUnrecognized, key)
		}
		canonical, err := p.resolve(kind, value)
		if err != nil {
			return nil, err
		}
		apply(kind, canonical)
	}

	for _, token := range bare {
		kind, canonical, ok := p.guess(token)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a state, attribute or scheme", ErrUnrecognized, token)
		}
		apply(kind, canonical)
	}

	result := &TranslateResult{Selection: sel}
	for _, kind := range []string{"state", "attribute", "scheme"} {
		if changed[kind] {
			result.Interpretation.Changed = append(result.Interpretation.Changed, kind)
		}
	}
	result.Interpretation.Summary = Describe(sel)
	return result, nil
}

// Describe is the one-line preview of a Selection.
func Describe(sel engine.Selection) string {
	return fmt.Sprintf("Showing %s codes in %s with the %s scheme", sel.Attribute, sel.State, sel.Scheme)
}

// resolve canonicalizes an explicit field value. Unknown attributes and
// schemes are errors; an unknown state is kept, upper-cased, since it only
// yields an empty summary.
func (p *Parser) resolve(kind, value string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	switch kind {
	case "attribute":
		if v, ok := p.attributes[key]; ok {
			return v, nil
		}
		return "", fmt.Errorf("%w: %q", engine.ErrUnknownAttribute, value)
	case "scheme":
		if v, ok := p.schemes[key]; ok {
			return v, nil
		}
		return "", fmt.Errorf("%w: %q", engine.ErrUnknownScheme, value)
	default:
		if v, ok := p.states[key]; ok {
			return v, nil
		}
		return strings.ToUpper(strings.TrimSpace(value)), nil
	}
}

func (p *Parser) guess(token string) (kind, canonical string, ok bool) {
	key := strings.ToLower(token)
	if v, ok := p.attributes[key]; ok {
		return "attribute", v, true
	}
	if v, ok := p.schemes[key]; ok {
		return "scheme", v, true
	}
	if v, ok := p.states[key]; ok {
		return "state", v, true
	}
	return "", "", false
}

func fieldKind(key string) (string, bool) {
	switch strings.ToLower(key) {
	case "state", "st":
		return "state", true
	case "attribute", "attr", "column", "identifier":
		return "attribute", true
	case "scheme", "color", "colour", "palette":
		return "scheme", true
	}
	return "", false
}

func splitTokens(input string) (map[string]string, []string) {
	fields := make(map[string]string)
	var bare []string
	for _, tok := range strings.Fields(input) {
		tok = strings.Trim(tok, ",;")
		if tok == "" {
			continue
		}
		if k, v, ok := strings.Cut(tok, "="); ok {
			fields[k] = v
			continue
		}
		if k, v, ok := strings.Cut(tok, ":"); ok {
			fields[k] = v
			continue
		}
		bare = append(bare, tok)
	}
	return fields, bare
}

func decodeJSON(input string) (map[string]string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(input), &raw); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrUnrecognized, err)
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q must be a string", ErrUnrecognized, k)
		}
		fields[k] = s
	}
	return fields, nil
}

// cleanInput trims whitespace and markdown code fences.
func cleanInput(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseCommand splits a console line into a verb and arguments. A line that
// does not start with a known verb is a selection change (VerbSelect).
func ParseCommand(line string) Command {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return Command{Verb: VerbShow}
	}
	verb := strings.ToLower(fields[0])
	switch verb {
	case "exit", "q":
		verb = VerbQuit
	case "?", "h":
		verb = VerbHelp
	case "set":
		return Command{Verb: VerbSelect, Args: []string{strings.Join(fields[1:], " ")}}
	}
	for _, v := range Verbs {
		if v == verb {
			return Command{Verb: verb, Args: fields[1:]}
		}
	}
	return Command{Verb: VerbSelect, Args: []string{strings.Join(fields, " ")}}
}
