package bcd

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// DefaultTimeout is assumed whenever the boot-manager timeout cannot be
// read.
const DefaultTimeout = 30

// Entry is one boot record as read from the store: the parsed property map
// plus the raw dump the textual status heuristics run over.
type Entry struct {
	ID    string
	Props Properties
	Raw   string
}

// Store reads and mutates the boot configuration through the external tool.
// Every read is a fresh snapshot; nothing is cached authoritatively, so
// external mutation between reads stays observable.
type Store struct {
	runner Runner
	locale LocaleCode
	logger hclog.Logger

	// lastDefault is advisory only: it remembers the last identifier this
	// process set as default and must be reconfirmed by GetDefault.
	lastDefault string
}

// NewStore creates a store over a runner, with the locale resolved once by
// the caller and threaded in here.
func NewStore(runner Runner, locale LocaleCode, logger hclog.Logger) *Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Store{runner: runner, locale: locale, logger: logger}
}

// Locale returns the locale the store parses with.
func (s *Store) Locale() LocaleCode {
	return s.locale
}

// ListIdentifiers enumerates every distinct entry identifier in first-seen
// order. A failed enumeration yields an empty list, not an error.
func (s *Store) ListIdentifiers() []string {
	res, err := s.runner.Run("/enum", "/v")
	if err != nil || !res.Ok() {
		s.logger.Warn("⚠️ Enumeration failed", "error", err, "stderr", strings.TrimSpace(res.Stderr))
		return nil
	}
	return FindIdentifiers(res.Stdout)
}

// RawEntry fetches one entry's verbose dump.
func (s *Store) RawEntry(id string) (string, bool) {
	res, err := s.runner.Run("/enum", id, "/v")
	if err != nil || !res.Ok() {
		return "", false
	}
	return res.Stdout, true
}

// GetEntry fetches and parses one entry. The returned Entry always carries
// an identifier; when the dump itself had none the requested id is used.
func (s *Store) GetEntry(id string) (Entry, bool) {
	raw, ok := s.RawEntry(id)
	if !ok {
		return Entry{}, false
	}
	props := ParseEntryBlock(raw)
	entry := Entry{ID: props["identifier"], Props: props, Raw: raw}
	if entry.ID == "" {
		entry.ID = id
	}
	return entry, true
}

// Property reads a single property of an entry through the tiered lookup.
// UnknownValue means the property could not be located.
func (s *Store) Property(id, key string) string {
	raw, ok := s.RawEntry(id)
	if !ok {
		return UnknownValue
	}
	return LookupProperty(raw, key, s.locale)
}

// Description returns an entry's display name.
func (s *Store) Description(id string) string {
	return s.Property(id, "description")
}

// Device returns an entry's boot device, falling back to the OS device when
// the boot device is not present.
func (s *Store) Device(id string) string {
	raw, ok := s.RawEntry(id)
	if !ok {
		return UnknownValue
	}
	return deviceFrom(raw, s.locale)
}

// Path returns an entry's loader path.
func (s *Store) Path(id string) string {
	return s.Property(id, "path")
}

// Type returns an entry's type value.
func (s *Store) Type(id string) string {
	return s.Property(id, "type")
}

func deviceFrom(raw string, locale LocaleCode) string {
	if v := LookupProperty(raw, "device", locale); v != UnknownValue {
		return v
	}
	return LookupProperty(raw, "osdevice", locale)
}

var sectionSplit = regexp.MustCompile(`\n\n+`)

// GetDefault returns the identifier that boots without user interaction.
// The boot-manager pseudo-entry is queried first; if its dump does not give
// up the value, the full dump is split into sections and the one mentioning
// the boot-manager term is searched instead. Two strategies because the
// boot-manager record's dump format differs from ordinary entries.
func (s *Store) GetDefault() (string, bool) {
	res, err := s.runner.Run("/enum", BootMgrID)
	if err == nil && res.Ok() {
		if id, ok := s.defaultFrom(res.Stdout); ok {
			return id, true
		}
	}

	full, err := s.runner.Run("/enum", "/v")
	if err != nil || !full.Ok() {
		return "", false
	}
	term := strings.ToLower(s.locale.Translate("bootmgr"))
	for _, section := range sectionSplit.Split(full.Stdout, -1) {
		lowered := strings.ToLower(section)
		if strings.Contains(lowered, term) || strings.Contains(lowered, "bootmgr") {
			if id, ok := s.defaultFrom(section); ok {
				return id, true
			}
		}
	}
	return "", false
}

// defaultFrom extracts the GUID following the default key, localized token
// first, canonical token second.
func (s *Store) defaultFrom(text string) (string, bool) {
	for _, key := range []string{strings.ToLower(s.locale.Translate("default")), "default"} {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(key) + `\s+(\{[a-fA-F0-9-]+\})`)
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// LastKnownDefault returns the advisory value recorded by SetDefault. It is
// non-authoritative and must be reconfirmed by GetDefault.
func (s *Store) LastKnownDefault() string {
	return s.lastDefault
}

// GetDisplayOrder returns the boot-menu presentation order. The order is
// rendered as a multi-line block, so the scan is line-windowed: the section
// opens at the line carrying the displayorder key (localized or canonical),
// each following non-blank line contributes one identifier, and the first
// blank line closes it.
func (s *Store) GetDisplayOrder() []string {
	res, err := s.runner.Run("/enum", BootMgrID)
	if err != nil || !res.Ok() {
		return nil
	}

	orderKey := strings.ToLower(s.locale.Translate("displayorder"))
	var order []string
	inSection := false
	for _, line := range strings.Split(res.Stdout, "\n") {
		lowered := strings.ToLower(line)
		switch {
		case strings.Contains(lowered, orderKey) || strings.Contains(lowered, "displayorder"):
			inSection = true
			if id, ok := FindIdentifier(line); ok {
				order = append(order, id)
			}
		case inSection && strings.TrimSpace(line) != "":
			if id, ok := FindIdentifier(line); ok {
				order = append(order, id)
			}
		case inSection:
			inSection = false
		}
	}
	return order
}

// GetTimeout returns the boot-menu timeout in seconds. Retrieval never fails
// the caller: any miss or tool failure yields DefaultTimeout.
func (s *Store) GetTimeout() int {
	res, err := s.runner.Run("/enum", BootMgrID)
	if err != nil || !res.Ok() {
		return DefaultTimeout
	}
	for _, key := range []string{strings.ToLower(s.locale.Translate("timeout")), "timeout"} {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(key) + `\s+(\d+)`)
		if m := re.FindStringSubmatch(res.Stdout); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
	}
	return DefaultTimeout
}

// EntryTypes collects the distinct entry type values present in a full
// enumeration of the store.
func (s *Store) EntryTypes() []string {
	res, err := s.runner.Run("/enum", "all")
	if err != nil || !res.Ok() {
		return nil
	}
	typeKey := strings.ToLower(s.locale.Translate("type"))
	seen := make(map[string]bool)
	var types []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if !strings.Contains(strings.ToLower(line), typeKey) {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		v := fields[len(fields)-1]
		if !seen[v] {
			seen[v] = true
			types = append(types, v)
		}
	}
	return types
}
