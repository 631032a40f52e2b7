// Package memo extracts a donor display name and an optional user linking code
// from free-text bank transfer memos.
//
// Name extraction is a best-effort chain of heuristics tried in a fixed order;
// the first one that yields an acceptable name wins. Linking-code extraction is
// independent of the name chain and always scans the original memo.
package memo

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Anonymous is the donor name used when no heuristic finds a name.
const Anonymous = "Ẩn danh"

// DefaultCodePrefix is the prefix of user linking codes ("BTT-AB12CD").
const DefaultCodePrefix = "BTT"

const (
	minNameRunes = 3
	maxNameRunes = 50
)

// NameSource identifies which heuristic produced the donor name.
type NameSource string

const (
	SourceKeyword      NameSource = "keyword"
	SourceLeadingWords NameSource = "leading_words"
	SourcePlaceholder  NameSource = "placeholder"
)

// DefaultKeywords are transfer verbs followed by the recipient's own name and
// aliases, in matching order.
var DefaultKeywords = []string{
	"chuyen tien", "chuyen khoan", "ck",
	"nuoi bui tuan tu", "nuoi",
	"ung ho", "ungho", "donate",
	"bui tuan tu", "buituantu",
	"gui tien", "guitien",
}

var (
	referencePrefixRe = regexp.MustCompile(`(?i)^(?:MBVCB|FT)\.?\d+\.?`)
	trailingRefRe     = regexp.MustCompile(`(?i)\s*-\s*Ma GD.*$`)
	inlineRefRe       = regexp.MustCompile(`(?i)Ma GD:?\s*\w+`)
	letterRe          = regexp.MustCompile(`[a-zA-Z\x{00C0}-\x{1EF9}]`)
)

// Result is the outcome of parsing one memo. An empty LinkingCode means the
// memo carried no code.
type Result struct {
	DonorName   string
	NameSource  NameSource
	LinkingCode string
}

// HasLinkingCode reports whether a linking code was found.
func (r Result) HasLinkingCode() bool {
	return r.LinkingCode != ""
}

type keyword struct {
	phrase string
	re     *regexp.Regexp
}

type heuristic struct {
	source  NameSource
	extract func(cleaned string) (string, bool)
}

// Parser is safe for concurrent use; it holds only compiled patterns.
type Parser struct {
	codePrefix string
	codeRe     *regexp.Regexp
	exactRe    *regexp.Regexp
	keywords   []keyword
	phrases    map[string]struct{}
	heuristics []heuristic
}

var defaultParser = NewParser(DefaultCodePrefix, DefaultKeywords)

// Parse runs the default parser.
func Parse(memo string) Result {
	return defaultParser.Parse(memo)
}

// NewParser builds a parser for the given code prefix and ordered keyword list.
// Keywords are matched case- and diacritic-insensitively on word boundaries.
func NewParser(codePrefix string, keywords []string) *Parser {
	prefix := strings.ToUpper(strings.TrimSpace(codePrefix))
	if prefix == "" {
		prefix = DefaultCodePrefix
	}
	quoted := regexp.QuoteMeta(prefix)

	p := &Parser{
		codePrefix: prefix,
		codeRe:     regexp.MustCompile(`(?i)` + quoted + `-?([A-Z0-9]{6})`),
		exactRe:    regexp.MustCompile(`(?i)^` + quoted + `-?([A-Z0-9]{6})$`),
		phrases:    make(map[string]struct{}, len(keywords)),
	}
	for _, raw := range keywords {
		phrase := normalizePhrase(raw)
		if phrase == "" {
			continue
		}
		if _, dup := p.phrases[phrase]; dup {
			continue
		}
		p.phrases[phrase] = struct{}{}
		p.keywords = append(p.keywords, keyword{
			phrase: phrase,
			re:     regexp.MustCompile(`(?:^|[^a-z0-9])(` + regexp.QuoteMeta(phrase) + `)(?:[^a-z0-9]|$)`),
		})
	}
	p.heuristics = []heuristic{
		{source: SourceKeyword, extract: p.nameAroundKeyword},
		{source: SourceLeadingWords, extract: p.nameFromLeadingWords},
	}
	return p
}

// CodePrefix returns the canonical (upper-case) linking code prefix.
func (p *Parser) CodePrefix() string {
	return p.codePrefix
}

// Parse extracts the donor name and linking code from memo.
func (p *Parser) Parse(memo string) Result {
	res := Result{
		DonorName:   Anonymous,
		NameSource:  SourcePlaceholder,
		LinkingCode: p.ExtractCode(memo),
	}

	cleaned := p.stripBoilerplate(memo)
	if cleaned == "" {
		return res
	}
	for _, h := range p.heuristics {
		if name, ok := h.extract(cleaned); ok {
			res.DonorName = name
			res.NameSource = h.source
			break
		}
	}
	return res
}

// ExtractCode finds the first linking code anywhere in memo and returns it in
// canonical PREFIX-XXXXXX form, or "" when none is present.
func (p *Parser) ExtractCode(memo string) string {
	m := p.codeRe.FindStringSubmatch(memo)
	if m == nil {
		return ""
	}
	return p.codePrefix + "-" + strings.ToUpper(m[1])
}

// NormalizeCode canonicalizes a code typed by a user ("btt ab12cd" is not
// accepted, "bttab12cd" and "BTT-AB12CD" are).
func (p *Parser) NormalizeCode(code string) (string, bool) {
	m := p.exactRe.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return "", false
	}
	return p.codePrefix + "-" + strings.ToUpper(m[1]), true
}

func (p *Parser) stripBoilerplate(memo string) string {
	s := strings.TrimSpace(memo)
	s = referencePrefixRe.ReplaceAllString(s, "")
	s = trailingRefRe.ReplaceAllString(s, "")
	s = inlineRefRe.ReplaceAllString(s, " ")
	s = p.codeRe.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")
	return trimCandidate(s)
}

// nameAroundKeyword tries, per keyword in order, the text before and then the
// text after the keyword's first occurrence.
func (p *Parser) nameAroundKeyword(cleaned string) (string, bool) {
	runes := []rune(cleaned)
	folded := fold(cleaned)
	for _, kw := range p.keywords {
		loc := kw.re.FindStringSubmatchIndex(folded)
		if loc == nil {
			continue
		}
		start := utf8.RuneCountInString(folded[:loc[2]])
		end := utf8.RuneCountInString(folded[:loc[3]])
		for _, candidate := range []string{string(runes[:start]), string(runes[end:])} {
			candidate = trimCandidate(candidate)
			if p.acceptable(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

func (p *Parser) nameFromLeadingWords(cleaned string) (string, bool) {
	words := strings.Fields(cleaned)
	if len(words) < 2 || len(words) > 5 {
		return "", false
	}
	candidate := truncateRunes(strings.Join(words[:min(4, len(words))], " "), maxNameRunes)
	if utf8.RuneCountInString(candidate) < minNameRunes || !letterRe.MatchString(candidate) {
		return "", false
	}
	if p.onlyKeywords(candidate) {
		return "", false
	}
	return candidate, true
}

func (p *Parser) acceptable(candidate string) bool {
	n := utf8.RuneCountInString(candidate)
	if n < minNameRunes || n > maxNameRunes {
		return false
	}
	if !letterRe.MatchString(candidate) {
		return false
	}
	_, isKeyword := p.phrases[normalizePhrase(candidate)]
	return !isKeyword
}

// onlyKeywords reports whether nothing but keywords (and punctuation) remains
// once every keyword is removed from s.
func (p *Parser) onlyKeywords(s string) bool {
	rest := " " + fold(s) + " "
	for _, kw := range p.keywords {
		rest = kw.re.ReplaceAllString(rest, " ")
	}
	return !letterRe.MatchString(rest)
}

func normalizePhrase(s string) string {
	return strings.Join(strings.Fields(fold(s)), " ")
}

// truncateRunes cuts s to at most n runes, dropping trailing separators left
// at the cut.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return trimCandidate(string(runes[:n]))
}

func trimCandidate(s string) string {
	return strings.Trim(s, " \t\r\n-.,:;")
}
