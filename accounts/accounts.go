/*
Package accounts models chart-of-accounts codes and labels.

PURPOSE:
  Ledger entries arrive tagged with raw "code - description" labels
  ("5.1.2 - Manutenção Predial"). This package parses those labels,
  derives the two-segment parent ("mother") account every projection
  percentage hangs off, classifies accounts as extraordinary, and orders
  codes the way an accountant expects.

KEY CONCEPTS:
  - Info:       parsed label -> {Code, Description, Label}
  - ParentCode: "5.1.2" -> "5.1", the grouping key for reajustment
  - Extraordinary: accounts whose description marks them as non-recurring;
    kept in reports, excluded from the recurring grand total
  - Compare:    numeric segment ordering ("10.2" sorts after "9.1")

MATCHING:
  Extraordinary detection is case- and diacritic-insensitive, so
  "EXTRAORDINÁRIA", "extraordinaria" and "Extraordinária" all match.

SEE ALSO:
  - budget: consumes ParentCode and Extraordinary during projection
*/
package accounts

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NoCode is the parent key used when an entry carries no account code at
// all. Such rows still aggregate, under a single codeless bucket.
const NoCode = "sem-codigo"

// =============================================================================
// LABEL PARSING
// =============================================================================

// Info is the parsed form of a raw account label.
type Info struct {
	Code        string // "5.1.2", empty when the label has no leading code
	Description string // "Manutenção Predial"
	Label       string // the raw label, unchanged
}

// Accepts "-", en-dash and em-dash between code and description.
var labelRe = regexp.MustCompile(`^\s*(\d+(?:\.\d+)*)\s*(?:[-–—]\s*)?(.*)$`)

var pureCodeRe = regexp.MustCompile(`^\d+(?:\.\d+)*$`)

// Parse extracts the numeric code and description from a raw label.
// Labels without a leading code keep the whole text as description.
func Parse(label string) Info {
	m := labelRe.FindStringSubmatch(label)
	if m == nil {
		return Info{Description: strings.TrimSpace(label), Label: label}
	}
	return Info{
		Code:        m[1],
		Description: strings.TrimSpace(m[2]),
		Label:       label,
	}
}

// ParentCode reduces a code (or a raw label) to its two-segment parent:
// "5.1.2" -> "5.1", "5" -> "5", "" -> NoCode. A label without a numeric
// code is its own parent key.
func ParentCode(codeOrLabel string) string {
	s := strings.TrimSpace(codeOrLabel)
	if s == "" {
		return NoCode
	}
	if info := Parse(s); info.Code != "" {
		s = info.Code
	}
	segments := strings.Split(s, ".")
	if len(segments) < 2 {
		return segments[0]
	}
	return segments[0] + "." + segments[1]
}

// =============================================================================
// EXTRAORDINARY CLASSIFICATION
// =============================================================================

// Plan maps account codes to chart-of-accounts descriptions. It may be
// empty when the upstream chart endpoint returns nothing.
type Plan map[string]string

// DisplayLabel enriches a parent code with its plan description when one
// exists ("5.1" -> "5.1 - Despesas de Manutenção").
func (p Plan) DisplayLabel(code string) string {
	if desc, ok := p[code]; ok && desc != "" {
		return code + " - " + desc
	}
	return code
}

const extraordinaryMark = "extraordinar"

// IsExtraordinary reports whether a parent account is flagged as
// non-recurring, either by its plan description or by the row's own
// label with the code prefix stripped.
func IsExtraordinary(parentCode string, plan Plan, rowLabel string) bool {
	if desc, ok := plan[parentCode]; ok && containsFolded(desc, extraordinaryMark) {
		return true
	}
	return containsFolded(Parse(rowLabel).Description, extraordinaryMark)
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// containsFolded matches substrings ignoring case and diacritics.
func containsFolded(haystack, needle string) bool {
	folded, _, err := transform.String(foldTransformer, haystack)
	if err != nil {
		folded = haystack
	}
	return strings.Contains(strings.ToLower(folded), needle)
}

// =============================================================================
// ORDERING
// =============================================================================

var (
	collMu   sync.Mutex
	collator = collate.New(language.BrazilianPortuguese, collate.Numeric)
)

// Compare orders account codes for display. Pure dot-separated codes
// compare segment-by-segment as integers (missing segments sort lower);
// anything else falls back to locale-aware numeric collation.
func Compare(a, b string) int {
	if pureCodeRe.MatchString(a) && pureCodeRe.MatchString(b) {
		return compareSegments(a, b)
	}
	collMu.Lock()
	defer collMu.Unlock()
	return collator.CompareString(a, b)
}

func compareSegments(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, _ := strconv.Atoi(as[i])
		bi, _ := strconv.Atoi(bs[i])
		if ai != bi {
			if ai < bi {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	default:
		return 0
	}
}
