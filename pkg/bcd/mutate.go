package bcd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Mutations compose tool commands in a fixed order. Multi-step operations
// run fire-and-continue: a rejected sub-command is logged and collected but
// never rolls back the steps that already succeeded, so the store can end up
// partially configured and callers must re-read to observe the actual
// result. Only spawn failure aborts a sequence.

// property is one key/value step in a multi-step mutation.
type property struct {
	key   string
	value string
}

// runChecked runs one command and converts a non-zero exit into a
// RejectionError carrying the tool's stderr.
func (s *Store) runChecked(op string, args ...string) error {
	res, err := s.runner.Run(args...)
	if err != nil {
		return err
	}
	if !res.Ok() {
		return &RejectionError{Op: op, ExitCode: res.ExitCode, Stderr: strings.TrimSpace(res.Stderr)}
	}
	return nil
}

// SetDefault makes id the entry that boots without user interaction and
// records it as the advisory last-known default.
func (s *Store) SetDefault(id string) error {
	if err := s.runChecked("set default", "/default", id); err != nil {
		return err
	}
	s.lastDefault = id
	return nil
}

// SetTimeout sets the boot-menu timeout. Negative values are rejected before
// any command is issued.
func (s *Store) SetTimeout(seconds int) error {
	if seconds < 0 {
		return ErrNegativeTimeout
	}
	return s.runChecked("set timeout", "/timeout", strconv.Itoa(seconds))
}

// SetDisplayOrder replaces the boot-menu order. The stored value is cleared
// unconditionally first so that an empty order actually empties the menu; a
// rejected set after a successful clear leaves the store with no display
// order at all. That window is accepted, not retried.
func (s *Store) SetDisplayOrder(order []string) error {
	if _, err := s.runner.Run("/deletevalue", BootMgrID, "displayorder"); err != nil {
		return err
	}
	if len(order) == 0 {
		return nil
	}
	args := append([]string{"/displayorder"}, order...)
	return s.runChecked("set display order", args...)
}

// MoveUp swaps id with its predecessor in the display order. The tool has no
// swap primitive, so the whole mutated list is rewritten. Already first is a
// no-op success.
func (s *Store) MoveUp(id string) error {
	order := s.GetDisplayOrder()
	i := indexOfIdentifier(order, id)
	if i < 0 {
		return ErrEntryNotInOrder
	}
	if i == 0 {
		return nil
	}
	order[i-1], order[i] = order[i], order[i-1]
	return s.SetDisplayOrder(order)
}

// MoveDown swaps id with its successor in the display order. Already last is
// a no-op success.
func (s *Store) MoveDown(id string) error {
	order := s.GetDisplayOrder()
	i := indexOfIdentifier(order, id)
	if i < 0 {
		return ErrEntryNotInOrder
	}
	if i == len(order)-1 {
		return nil
	}
	order[i], order[i+1] = order[i+1], order[i]
	return s.SetDisplayOrder(order)
}

func indexOfIdentifier(order []string, id string) int {
	for i, candidate := range order {
		if SameIdentifier(candidate, id) {
			return i
		}
	}
	return -1
}

// CreateEntry copies the running entry as a template and configures the
// copy. The copy is mandatory and yields the fresh identifier; device, path
// and type are then set by independent follow-up commands whose rejections
// are logged without aborting the rest or deleting the new entry. A spawn
// failure mid-sequence aborts and is returned together with the identifier,
// since the entry exists by then.
func (s *Store) CreateEntry(description, device, path, entryType string) (string, error) {
	if strings.TrimSpace(description) == "" {
		return "", ErrEmptyDescription
	}
	res, err := s.runner.Run("/copy", CurrentID, "/d", description)
	if err != nil {
		return "", err
	}
	if !res.Ok() {
		return "", &RejectionError{Op: "copy template", ExitCode: res.ExitCode, Stderr: strings.TrimSpace(res.Stderr)}
	}
	id, ok := FindIdentifier(res.Stdout)
	if !ok {
		return "", ErrNoIdentifier
	}
	s.logger.Info("✨ Created boot entry", "id", id, "description", description)

	var steps []property
	if device != "" {
		steps = append(steps, property{"device", device}, property{"osdevice", device})
	}
	if path != "" {
		steps = append(steps, property{"path", path})
	}
	if entryType != "" {
		steps = append(steps, property{"type", entryType})
	}
	for _, step := range steps {
		if err := s.setValueLogged(id, step.key, step.value); err != nil {
			// The entry already exists; the identifier goes back with the
			// spawn failure so the caller can still address it.
			return id, err
		}
	}
	return id, nil
}

// CreateVHDEntry creates an entry booting a virtual-disk image: a plain
// template copy whose device and osdevice are pointed at the image, plus
// hardware detection and a data-execution-prevention opt-in.
func (s *Store) CreateVHDEntry(description, vhdPath string) (string, error) {
	id, err := s.CreateEntry(description, "", "", "")
	if err != nil {
		return "", err
	}
	device := fmt.Sprintf("vhd=[%s]", vhdPath)
	steps := []property{
		{"device", device},
		{"osdevice", device},
		{"detecthal", "yes"},
		{"nx", "OptIn"},
	}
	for _, step := range steps {
		if err := s.setValueLogged(id, step.key, step.value); err != nil {
			return id, err
		}
	}
	return id, nil
}

// setValueLogged sets one property, downgrading a rejection to a warning.
// Spawn failure is returned: it aborts the sequence.
func (s *Store) setValueLogged(id, key, value string) error {
	if err := s.SetProperty(id, key, value); err != nil {
		if errors.Is(err, ErrToolUnavailable) {
			return err
		}
		s.logger.Warn("⚠️ Follow-up property set failed", "id", id, "key", key, "error", err)
	}
	return nil
}

// DeleteEntry removes an entry from the store. The tool may leave a dangling
// display-order reference; reads tolerate that and flag the entry missing.
func (s *Store) DeleteEntry(id string) error {
	return s.runChecked("delete entry", "/delete", id)
}

// SetProperty sets one property on an entry.
func (s *Store) SetProperty(id, key, value string) error {
	return s.runChecked("set "+key, "/set", id, key, value)
}

// DeleteProperty removes one property from an entry.
func (s *Store) DeleteProperty(id, key string) error {
	return s.runChecked("delete "+key, "/deletevalue", id, key)
}

// SetRamdisk points an entry at a RAM-resident disk image via three
// independent commands. All three results are ANDed into the overall result,
// but execution never short-circuits, so a failed overall operation can
// still have partially applied.
func (s *Store) SetRamdisk(id, sdiDevice, sdiPath, arch string) error {
	if arch == "" {
		arch = "x64"
	}
	steps := []property{
		{"ramdisksdidevice", sdiDevice},
		{"ramdisksdipath", sdiPath},
		{"ramdisksdiprocessorarchitecture", arch},
	}
	var errs []error
	for _, step := range steps {
		if err := s.SetProperty(id, step.key, step.value); err != nil {
			if errors.Is(err, ErrToolUnavailable) {
				return err
			}
			s.logger.Warn("⚠️ Ramdisk property not applied", "id", id, "key", step.key, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ClearRamdisk removes the ramdisk configuration best-effort. Individual
// deletions may be rejected (the property may not exist); that is never
// reported as failure.
func (s *Store) ClearRamdisk(id string) error {
	for _, key := range ramdiskProperties {
		if err := s.DeleteProperty(id, key); err != nil {
			if errors.Is(err, ErrToolUnavailable) {
				return err
			}
			s.logger.Debug("🗑️ Ramdisk property was not removed", "id", id, "key", key, "error", err)
		}
	}
	return nil
}

// EnableKernelDebugging turns on kernel debugging for an entry. The debug
// toggle is mandatory; port and baud rate are optional follow-ups whose
// failures only warn.
func (s *Store) EnableKernelDebugging(id, port, baudRate string) error {
	if err := s.SetProperty(id, "debug", "on"); err != nil {
		return err
	}
	if port != "" {
		if err := s.setValueLogged(id, "debugport", port); err != nil {
			return err
		}
	}
	if baudRate != "" {
		if err := s.setValueLogged(id, "debugbaudrate", baudRate); err != nil {
			return err
		}
	}
	return nil
}

// DisableKernelDebugging turns kernel debugging off and cleans up the
// optional debug properties best-effort.
func (s *Store) DisableKernelDebugging(id string) error {
	err := s.SetProperty(id, "debug", "off")
	for _, key := range []string{"debugport", "debugbaudrate"} {
		if derr := s.DeleteProperty(id, key); derr != nil {
			if errors.Is(derr, ErrToolUnavailable) {
				return derr
			}
			s.logger.Debug("🗑️ Debug property was not removed", "id", id, "key", key, "error", derr)
		}
	}
	return err
}

// ExportStore writes the store to an opaque image file owned by the tool.
func (s *Store) ExportStore(path string) error {
	return s.runChecked("export store", "/export", path)
}

// ImportStore replaces the store from an image file previously exported.
func (s *Store) ImportStore(path string) error {
	return s.runChecked("import store", "/import", path)
}
