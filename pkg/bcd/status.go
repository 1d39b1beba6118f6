package bcd

import (
	"os"
	"strings"
)

// Prober checks whether a filesystem path is observable. Status evaluation
// takes it as an interface so tests and remote callers can substitute
// probes.
type Prober interface {
	Exists(path string) bool
}

type osProber struct{}

func (osProber) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// OSProber probes the real filesystem.
var OSProber Prober = osProber{}

// EntryStatus is derived from an entry on every read; it is never persisted.
type EntryStatus struct {
	IsDefault  bool
	IsUEFI     bool
	HasRamdisk bool
	IsMissing  bool
}

const partitionPrefix = "partition="

// ramdiskProperties are the configuration names whose presence anywhere in
// an entry's dump marks it as ramdisk-booting.
var ramdiskProperties = []string{
	"ramdisksdidevice",
	"ramdisksdipath",
	"ramdisksdiprocessorarchitecture",
}

// HasRamdisk reports whether any ramdisk configuration property appears in
// the raw dump.
func HasRamdisk(raw string) bool {
	lowered := strings.ToLower(raw)
	for _, prop := range ramdiskProperties {
		if strings.Contains(lowered, prop) {
			return true
		}
	}
	return false
}

// IsUEFI reports whether the raw dump carries an EFI loader extension or the
// literal UEFI marker. UEFI-ness is implied by the loader path rather than
// one canonical flag, so this is a whole-record textual heuristic; a
// description containing ".efi" will misclassify.
func IsUEFI(raw string) bool {
	lowered := strings.ToLower(raw)
	return strings.Contains(lowered, ".efi") || strings.Contains(lowered, "uefi")
}

// PartitionExists resolves a partition-reference device string
// ("partition=C:") by probing the drive designator as a filesystem root.
// Non-partition devices are assumed present.
func PartitionExists(device string, probe Prober) bool {
	if !strings.HasPrefix(strings.ToLower(device), partitionPrefix) {
		return true
	}
	designator := device[strings.Index(device, "=")+1:]
	if !strings.HasSuffix(designator, `\`) {
		designator += `\`
	}
	return probe.Exists(designator)
}

// IsMissing reports whether an entry's device or path is absent, unknown, or
// points at a partition that is not observable on the filesystem.
func IsMissing(e Entry, locale LocaleCode, probe Prober) bool {
	device := deviceFrom(e.Raw, locale)
	path := LookupProperty(e.Raw, "path", locale)
	if device == "" || path == "" ||
		strings.EqualFold(device, UnknownValue) || strings.EqualFold(path, UnknownValue) {
		return true
	}
	if strings.HasPrefix(strings.ToLower(device), partitionPrefix) {
		return !PartitionExists(device, probe)
	}
	return false
}

// Status derives the computed flags for one entry against the given default
// identifier.
func (s *Store) Status(e Entry, defaultID string, probe Prober) EntryStatus {
	if probe == nil {
		probe = OSProber
	}
	return EntryStatus{
		IsDefault:  SameIdentifier(e.ID, defaultID),
		IsUEFI:     IsUEFI(e.Raw),
		HasRamdisk: HasRamdisk(e.Raw),
		IsMissing:  IsMissing(e, s.locale, probe),
	}
}
