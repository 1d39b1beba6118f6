package bcd

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Well-known symbolic identifiers the external tool understands alongside
// brace-delimited GUIDs.
const (
	// BootMgrID addresses the boot-manager pseudo-entry that holds the
	// global settings (default entry, display order, timeout).
	BootMgrID = "{bootmgr}"
	// CurrentID addresses the currently running OS entry; new entries are
	// copied from it.
	CurrentID = "{current}"
	// DefaultEntryID is the tool's alias for whatever entry is currently
	// the default.
	DefaultEntryID = "{default}"
)

var idPattern = regexp.MustCompile(`\{[a-fA-F0-9-]+\}`)

// FindIdentifier returns the first brace-delimited GUID in text.
func FindIdentifier(text string) (string, bool) {
	id := idPattern.FindString(text)
	return id, id != ""
}

// FindIdentifiers returns every distinct brace-delimited GUID in text in
// first-seen order.
func FindIdentifiers(text string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, id := range idPattern.FindAllString(text, -1) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// IsWellKnown reports whether id is one of the symbolic pseudo-identifiers.
func IsWellKnown(id string) bool {
	switch strings.ToLower(id) {
	case BootMgrID, CurrentID, DefaultEntryID:
		return true
	}
	return false
}

// IsGUID reports whether id is a brace-delimited GUID.
func IsGUID(id string) bool {
	if len(id) < 2 || id[0] != '{' || id[len(id)-1] != '}' {
		return false
	}
	_, err := uuid.Parse(id[1 : len(id)-1])
	return err == nil
}

// ValidIdentifier accepts anything addressable by the tool: a GUID or one of
// the symbolic names.
func ValidIdentifier(id string) bool {
	return IsGUID(id) || IsWellKnown(id)
}

// CanonicalIdentifier lowers a GUID identifier to a canonical form so that
// user-typed identifiers match tool-produced ones regardless of hex case.
// Non-GUID input is lowercased as-is.
func CanonicalIdentifier(id string) string {
	if IsGUID(id) {
		u, _ := uuid.Parse(id[1 : len(id)-1])
		return "{" + u.String() + "}"
	}
	return strings.ToLower(id)
}

// SameIdentifier compares two identifiers case-insensitively.
func SameIdentifier(a, b string) bool {
	return a != "" && b != "" && CanonicalIdentifier(a) == CanonicalIdentifier(b)
}
