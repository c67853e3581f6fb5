// Package normalizer rewrites free-text ingredient names into a canonical
// form suitable for ontology lookup, plus a set of search variants. The
// pipeline never fails on malformed input — only an internal invariant
// violation in the pipeline itself is reported as an error, and that path
// is not expected to be reachable from any caller-supplied name.
package normalizer

import (
	"regexp"
	"strings"

	"github.com/culturemech/culturemech/internal/dictionaries"
)

// ---------------------------------------------------------------------------
// Step 1: leading prefix symbols
// ---------------------------------------------------------------------------

var reLeadingDashes = regexp.MustCompile(`^-{1,2}`)

func stripLeadingPrefixSymbols(s string) string {
	return reLeadingDashes.ReplaceAllString(s, "")
}

// ---------------------------------------------------------------------------
// Step 2: "Elemental" prefix
// ---------------------------------------------------------------------------

var reElementalPrefix = regexp.MustCompile(`(?i)^elemental\s+`)

func removeElementalPrefix(s string) string {
	return reElementalPrefix.ReplaceAllString(s, "")
}

// ---------------------------------------------------------------------------
// Step 3: malformed formula notation — polyatomic-ion multiplier digits
// that belong inside parentheses.
// ---------------------------------------------------------------------------

// polyatomicGroups is the deterministic table of ion groups whose trailing
// multiplier digit is commonly left unparenthesized by source data
// (NH42SO4 → (NH4)2SO4, CaNO32 → Ca(NO3)2). Groups already inside
// parentheses never match — the literal group text must be immediately
// followed by the digit, which a preceding ")" breaks — so this step is
// naturally idempotent.
var polyatomicGroups = []string{"NH4", "NO3", "OH", "HPO4", "H2PO4", "ClO4", "MnO4", "CO3"}

var formulaGroupRes = buildFormulaGroupRes()

func buildFormulaGroupRes() []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(polyatomicGroups))
	for i, g := range polyatomicGroups {
		res[i] = regexp.MustCompile(regexp.QuoteMeta(g) + `(\d)`)
	}
	return res
}

func fixFormulaNotation(s string) string {
	for i, g := range polyatomicGroups {
		s = formulaGroupRes[i].ReplaceAllString(s, "("+g+")$1")
	}
	return s
}

// ---------------------------------------------------------------------------
// Step 4: remove spaces inside chemical formulas (only between formula
// tokens on both sides).
// ---------------------------------------------------------------------------

var reFormulaToken = regexp.MustCompile(`^(\(?[A-Z][a-z]?\d*\)?\d*)+$`)

func isFormulaToken(tok string) bool {
	return reFormulaToken.MatchString(tok)
}

func removeFormulaSpaces(s string) string {
	tokens := strings.Fields(s)
	if len(tokens) < 2 {
		return s
	}
	out := make([]string, 0, len(tokens))
	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if isFormulaToken(tok) {
			merged := tok
			j := i + 1
			for j < len(tokens) && isFormulaToken(tokens[j]) {
				merged += tokens[j]
				j++
			}
			out = append(out, merged)
			i = j
			continue
		}
		out = append(out, tok)
		i++
	}
	return strings.Join(out, " ")
}

// ---------------------------------------------------------------------------
// Step 5: Greek letters → ASCII
// ---------------------------------------------------------------------------

var greekReplacer = strings.NewReplacer(
	"α", "alpha",
	"β", "beta",
	"γ", "gamma",
	"δ", "delta",
	"ε", "epsilon",
	"μ", "mu",
)

func greekToASCII(s string) string {
	return greekReplacer.Replace(s)
}

// ---------------------------------------------------------------------------
// Step 6: stereochemistry prefixes
// ---------------------------------------------------------------------------

func normalizeStereochemistry(s string) string {
	s = strings.ReplaceAll(s, "(±)-", "DL-")
	s = strings.ReplaceAll(s, "(+)-", "")
	s = strings.ReplaceAll(s, "(-)-", "")
	s = strings.ReplaceAll(s, "D+-", "D-")
	s = strings.ReplaceAll(s, "L+-", "L-")
	return s
}

// ---------------------------------------------------------------------------
// Step 7: iron oxidation-state notation
// ---------------------------------------------------------------------------

var (
	reFeRoman   = regexp.MustCompile(`\bFe(I{1,3}|IV)\b`)
	reIronRoman = regexp.MustCompile(`(?i)\biron(I{1,3}|IV)\b`)
)

func normalizeIronOxidation(s string) string {
	s = reFeRoman.ReplaceAllString(s, "Fe($1)")
	s = reIronRoman.ReplaceAllStringFunc(s, func(m string) string {
		sub := reIronRoman.FindStringSubmatch(m)
		return "iron(" + sub[1] + ")"
	})
	return s
}

// ---------------------------------------------------------------------------
// Step 8: trailing -HCl salt suffix
// ---------------------------------------------------------------------------

var reTrailingHCl = regexp.MustCompile(`(?i)-HCl$`)

func expandHClSuffix(s string) string {
	return reTrailingHCl.ReplaceAllString(s, " hydrochloride")
}

// ---------------------------------------------------------------------------
// Step 9: atom-salt word expansion ("Na-benzoate" → "sodium benzoate",
// "Na3 citrate" → "trisodium citrate")
// ---------------------------------------------------------------------------

var elementWords = map[string]string{
	"Na": "sodium",
	"K":  "potassium",
	"Ca": "calcium",
	"Mg": "magnesium",
	"Fe": "iron",
	"Zn": "zinc",
	"Mn": "manganese",
	"Cu": "copper",
}

var countPrefixes = map[string]string{
	"2": "di",
	"3": "tri",
	"4": "tetra",
}

var reAtomSalt = regexp.MustCompile(`^([A-Z][a-z]?)(\d*)[\s-]+([A-Za-z]+)$`)

func expandAtomSalt(s string) string {
	m := reAtomSalt.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	element, count, anion := m[1], m[2], m[3]
	word, ok := elementWords[element]
	if !ok {
		return s
	}
	prefix := countPrefixes[count]
	return prefix + word + " " + strings.ToLower(anion)
}

// ---------------------------------------------------------------------------
// Step 10: buffer-abbreviation dictionary expansion
// ---------------------------------------------------------------------------

func expandBuffer(s string) string {
	if name, ok := dictionaries.LookupBufferCompound(strings.TrimSpace(s)); ok {
		return name
	}
	return s
}

// ---------------------------------------------------------------------------
// Step 11: hydrate-suffix words
// ---------------------------------------------------------------------------

var reHydrateSuffix = regexp.MustCompile(`(?i)\s*(mono|di|tri|tetra|penta|hexa|hepta|octa|nona|deca)?hydrate\b`)

func stripHydrateSuffix(s string) string {
	return reHydrateSuffix.ReplaceAllString(s, "")
}

// ---------------------------------------------------------------------------
// Step 12: "x N H2O" / "·NH2O" hydration notation
// ---------------------------------------------------------------------------

var reHydrationNotation = regexp.MustCompile(`(?i)\s*[·x]\s*\d*\s*h2o`)

func stripHydrationNotation(s string) string {
	return reHydrationNotation.ReplaceAllString(s, "")
}

// ---------------------------------------------------------------------------
// Step 13: common typo fixes
// ---------------------------------------------------------------------------

func fixCommonTypos(s string) string {
	s = strings.ReplaceAll(s, "HC1", "HCl")
	s = strings.ReplaceAll(s, "--", "-")
	return s
}

// ---------------------------------------------------------------------------
// Step 14: collapse whitespace
// ---------------------------------------------------------------------------

var reWhitespaceRun = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(reWhitespaceRun.ReplaceAllString(s, " "))
}

// ---------------------------------------------------------------------------
// Step 15: unicode hydration-dot normalization
// ---------------------------------------------------------------------------

func normalizeHydrationDot(s string) string {
	s = strings.ReplaceAll(s, "・", "·")
	s = strings.ReplaceAll(s, "·", "x")
	return s
}

// ---------------------------------------------------------------------------
// Step 16: formula → common name dictionary
// ---------------------------------------------------------------------------

func expandFormulaToName(s string) string {
	if name, ok := dictionaries.LookupFormulaName(s); ok {
		return name
	}
	return s
}

// ---------------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------------

// Normalize runs the full 16-step deterministic pipeline over a single
// free-text ingredient name and returns the canonical normalized form. It is
// total: every input produces an output, never an error.
func Normalize(name string) string {
	s := name
	s = stripLeadingPrefixSymbols(s)
	s = removeElementalPrefix(s)
	s = fixFormulaNotation(s)
	s = removeFormulaSpaces(s)
	s = greekToASCII(s)
	s = normalizeStereochemistry(s)
	s = normalizeIronOxidation(s)
	s = expandHClSuffix(s)
	s = expandAtomSalt(s)
	s = expandBuffer(s)
	s = stripHydrateSuffix(s)
	s = stripHydrationNotation(s)
	s = fixCommonTypos(s)
	s = collapseWhitespace(s)
	s = normalizeHydrationDot(s)
	s = expandFormulaToName(s)
	return s
}

// ---------------------------------------------------------------------------
// Variant generation
// ---------------------------------------------------------------------------

var reHydrateWord = regexp.MustCompile(`(?i)\s*(mono|di|tri|tetra|penta|hexa|hepta|octa|nona|deca)?hydrate\b`)

// GenerateVariants returns the ordered, deduplicated list of search variants
// for name: the canonical form first, followed by a hydration-stripped
// variant, salt-form alternates (HCl ↔ hydrochloride), and a lowercased
// variant (FOODON lookups require lowercase).
func GenerateVariants(name string) []string {
	canonical := Normalize(name)
	variants := []string{canonical}

	if stripped := reHydrateWord.ReplaceAllString(canonical, ""); stripped != canonical {
		variants = append(variants, collapseWhitespace(stripped))
	}

	if strings.Contains(canonical, "hydrochloride") {
		variants = append(variants, strings.Replace(canonical, " hydrochloride", "-HCl", 1))
	} else if reTrailingHCl.MatchString(name) {
		variants = append(variants, canonical+"-HCl")
	}

	lower := strings.ToLower(canonical)
	variants = append(variants, lower)

	return dedupePreserveOrder(variants)
}

func dedupePreserveOrder(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
