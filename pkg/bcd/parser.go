package bcd

import (
	"regexp"
	"sort"
	"strings"
)

// UnknownValue is the sentinel returned for properties that cannot be
// located in tool output. Absence is data here, never an error.
const UnknownValue = "unknown"

// Properties is one entry's parsed property set, keyed by the lowercased
// token that preceded each value in the dump.
type Properties map[string]string

var kvPattern = regexp.MustCompile(`^(\S+)\s+(.+)$`)

// ParseEntryBlock parses one entry's verbose dump into a property map. Each
// non-blank line splits into a first whitespace-delimited token (the key,
// lowercased) and the remainder (the value, trimmed). The whole block is
// scanned separately for the first brace-delimited GUID, which becomes the
// "identifier" property: the token preceding it in the dump is
// locale-specific and cannot be relied on.
func ParseEntryBlock(text string) Properties {
	props := make(Properties)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := kvPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		props[strings.ToLower(m[1])] = strings.TrimSpace(m[2])
	}
	if id, ok := FindIdentifier(text); ok {
		props["identifier"] = id
	}
	return props
}

// matcher is one strategy for locating a property value in raw tool output.
type matcher func(text string, props Properties) (string, bool)

// keyMatchers builds the ordered strategy list for a canonical key: the
// localized token first, the canonical English token second (the tool's
// output language can diverge from the configured locale on mixed
// installations), and a substring scan over already-parsed keys last.
// Adding a locale is a data change in propertyTranslations, not new code.
func keyMatchers(key string, locale LocaleCode) []matcher {
	localized := strings.ToLower(locale.Translate(key))
	ms := []matcher{regexMatcher(localized)}
	if localized != key {
		ms = append(ms, regexMatcher(key))
	}
	ms = append(ms, substringMatcher(key, localized))
	return ms
}

func regexMatcher(token string) matcher {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(token) + `\s+(.+)`)
	return func(text string, _ Properties) (string, bool) {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
		return "", false
	}
}

func substringMatcher(tokens ...string) matcher {
	return func(_ string, props Properties) (string, bool) {
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, tok := range tokens {
				if tok != "" && strings.Contains(k, tok) {
					return props[k], true
				}
			}
		}
		return "", false
	}
}

// LookupProperty locates one property in raw tool output, trying each
// strategy from keyMatchers in order. A miss on every tier returns
// UnknownValue.
func LookupProperty(text, key string, locale LocaleCode) string {
	props := ParseEntryBlock(text)
	for _, m := range keyMatchers(strings.ToLower(key), locale) {
		if v, ok := m(text, props); ok {
			return v
		}
	}
	return UnknownValue
}
