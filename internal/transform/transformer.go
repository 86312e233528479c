// =============================================================================
// mergedoc - Field Transformations
// =============================================================================
//
// Optional value rewrites declared in the "transforms" config section. They
// run once, right after loading and before grouping, so grouping and the
// documents both see the rewritten values.
//
// EXAMPLE:
//   transforms:
//     - field: invoice_number
//       actions:
//         - type: trim
//         - type: uppercase
//         - type: pad_zeros_to_length   # "7" becomes "INV-007"
//           value: "3"
//         - type: prepend_string
//           value: "INV-"
//
// Loaded rows are never modified; Apply returns new rows.
//
// =============================================================================

package transform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/types"
)

// Supported action types.
const (
	ActionPrepend          = "prepend_string"
	ActionAppend           = "append_string"
	ActionTrim             = "trim"
	ActionUppercase        = "uppercase"
	ActionLowercase        = "lowercase"
	ActionReplace          = "replace"
	ActionRegexReplace     = "regex_replace"
	ActionPadZeros         = "pad_zeros_to_length"
	ActionRemoveLeadZeros  = "remove_leading_zeros"
	ActionLookup           = "lookup"
	ActionLookupDefault    = "lookup_with_default"
	ActionIfEmptyDefault   = "if_empty_use_default"
	ActionIfEmptyUseField  = "if_empty_use_field"
	ActionNormalizeSpacing = "normalize_whitespace"
	ActionExtractDigits    = "extract_digits"
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reNonDigit   = regexp.MustCompile(`\D+`)
)

// Transformer applies a fixed set of rules.
type Transformer struct {
	rules   []config.TransformRule
	regexes map[string]*regexp.Regexp
}

// New compiles the rules. Unknown action types and bad regular expressions
// are configuration errors.
func New(rules []config.TransformRule) (*Transformer, error) {
	t := &Transformer{rules: rules, regexes: make(map[string]*regexp.Regexp)}
	for _, rule := range rules {
		for _, action := range rule.Actions {
			switch action.Type {
			case ActionPrepend, ActionAppend, ActionTrim, ActionUppercase, ActionLowercase,
				ActionReplace, ActionRemoveLeadZeros, ActionLookup, ActionLookupDefault,
				ActionIfEmptyDefault, ActionIfEmptyUseField, ActionNormalizeSpacing, ActionExtractDigits:
			case ActionPadZeros:
				if n, err := strconv.Atoi(action.Value); err != nil || n <= 0 {
					return nil, fmt.Errorf("field %s: %s needs a positive length, got %q", rule.Field, action.Type, action.Value)
				}
			case ActionRegexReplace:
				re, err := regexp.Compile(action.Find)
				if err != nil {
					return nil, fmt.Errorf("field %s: invalid regex %q: %w", rule.Field, action.Find, err)
				}
				t.regexes[action.Find] = re
			default:
				return nil, fmt.Errorf("field %s: unknown transformation type %q", rule.Field, action.Type)
			}
		}
	}
	return t, nil
}

// Empty reports whether there is nothing to apply.
func (t *Transformer) Empty() bool {
	return len(t.rules) == 0
}

// Apply returns transformed copies of the rows. Rules for columns a row does
// not have are skipped. Rules see the values produced by earlier rules.
func (t *Transformer) Apply(rows []types.Row) []types.Row {
	if t.Empty() {
		return rows
	}
	out := make([]types.Row, len(rows))
	for i, row := range rows {
		next := row.Clone()
		for _, rule := range t.rules {
			value, ok := next.Values[rule.Field]
			if !ok {
				continue
			}
			for _, action := range rule.Actions {
				value = t.apply(value, action, next.Values)
			}
			next.Values[rule.Field] = value
		}
		out[i] = next
	}
	return out
}

func (t *Transformer) apply(value string, action config.TransformAction, fields map[string]string) string {
	switch action.Type {
	case ActionPrepend:
		return action.Value + value
	case ActionAppend:
		return value + action.Value
	case ActionTrim:
		return strings.TrimSpace(value)
	case ActionUppercase:
		return strings.ToUpper(value)
	case ActionLowercase:
		return strings.ToLower(value)
	case ActionReplace:
		if action.Find == "" {
			return value
		}
		return strings.ReplaceAll(value, action.Find, action.Value)
	case ActionRegexReplace:
		return t.regexes[action.Find].ReplaceAllString(value, action.Value)
	case ActionPadZeros:
		n, _ := strconv.Atoi(action.Value)
		return PadLeft(value, n, '0')
	case ActionRemoveLeadZeros:
		trimmed := strings.TrimLeft(value, "0")
		if trimmed == "" && value != "" {
			return "0"
		}
		return trimmed
	case ActionLookup:
		if replacement, ok := action.LookupTable[value]; ok {
			return replacement
		}
		return value
	case ActionLookupDefault:
		if replacement, ok := action.LookupTable[value]; ok {
			return replacement
		}
		return action.Value
	case ActionIfEmptyDefault:
		if strings.TrimSpace(value) == "" {
			return action.Value
		}
		return value
	case ActionIfEmptyUseField:
		if strings.TrimSpace(value) == "" {
			return fields[action.Value]
		}
		return value
	case ActionNormalizeSpacing:
		return strings.TrimSpace(reWhitespace.ReplaceAllString(value, " "))
	case ActionExtractDigits:
		return reNonDigit.ReplaceAllString(value, "")
	}
	return value
}

// PadLeft pads s on the left with padChar up to length runes.
func PadLeft(s string, length int, padChar rune) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return strings.Repeat(string(padChar), length-n) + s
}
