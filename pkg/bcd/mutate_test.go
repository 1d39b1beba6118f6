package bcd

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// orderRunner simulates the tool's display-order handling statefully so that
// reads reflect earlier writes within one test.
type orderRunner struct {
	order []string
	calls [][]string
}

func (r *orderRunner) Run(args ...string) (Result, error) {
	r.calls = append(r.calls, args)
	switch args[0] {
	case "/enum":
		var b strings.Builder
		b.WriteString("Windows Boot Manager\nidentifier              {bootmgr}\n\n")
		for i, id := range r.order {
			if i == 0 {
				fmt.Fprintf(&b, "displayorder            %s\n", id)
			} else {
				fmt.Fprintf(&b, "                        %s\n", id)
			}
		}
		b.WriteString("\ntimeout                 30\n")
		return Result{Stdout: b.String()}, nil
	case "/deletevalue":
		r.order = nil
		return Result{}, nil
	case "/displayorder":
		r.order = append([]string(nil), args[1:]...)
		return Result{}, nil
	}
	return Result{ExitCode: 1, Stderr: "unscripted"}, nil
}

var orderIDs = []string{
	"{467f4742-353e-11e1-9c27-d51b0d1b7d2e}",
	"{572bcd55-ffa7-11d9-aae0-0007e994107d}",
	"{9dea862c-5cdd-4e70-acc1-f32b344d4795}",
}

func newOrderStore() (*Store, *orderRunner) {
	r := &orderRunner{order: append([]string(nil), orderIDs...)}
	return NewStore(r, LocaleEN, nil), r
}

func TestSetDisplayOrder_ClearsBeforeSetting(t *testing.T) {
	s, r := newOrderStore()

	require.NoError(t, s.SetDisplayOrder([]string{orderIDs[2], orderIDs[0]}))
	require.Equal(t, [][]string{
		{"/deletevalue", BootMgrID, "displayorder"},
		{"/displayorder", orderIDs[2], orderIDs[0]},
	}, r.calls)
	require.Equal(t, []string{orderIDs[2], orderIDs[0]}, r.order)
}

func TestSetDisplayOrder_EmptyOrderOnlyClears(t *testing.T) {
	s, r := newOrderStore()

	require.NoError(t, s.SetDisplayOrder(nil))
	require.Equal(t, [][]string{{"/deletevalue", BootMgrID, "displayorder"}}, r.calls)
	require.Empty(t, r.order)
}

func TestSetDisplayOrder_Idempotent(t *testing.T) {
	s, _ := newOrderStore()

	observed := s.GetDisplayOrder()
	require.NoError(t, s.SetDisplayOrder(observed))
	require.Equal(t, observed, s.GetDisplayOrder())
}

func TestMoveUpDown_RoundTrip(t *testing.T) {
	s, r := newOrderStore()

	require.NoError(t, s.MoveUp(orderIDs[1]))
	require.Equal(t, []string{orderIDs[1], orderIDs[0], orderIDs[2]}, r.order)

	require.NoError(t, s.MoveDown(orderIDs[1]))
	require.Equal(t, orderIDs, r.order)
}

func TestMoveUpDown_BoundaryIsNoOpSuccess(t *testing.T) {
	s, r := newOrderStore()

	require.NoError(t, s.MoveUp(orderIDs[0]))
	require.NoError(t, s.MoveDown(orderIDs[2]))
	require.Equal(t, orderIDs, r.order)
	// Nothing but the two order reads was issued.
	for _, call := range r.calls {
		require.Equal(t, "/enum", call[0])
	}
}

func TestMoveUp_CaseInsensitiveMatch(t *testing.T) {
	s, r := newOrderStore()

	require.NoError(t, s.MoveUp(strings.ToUpper(orderIDs[1])))
	require.Equal(t, []string{orderIDs[1], orderIDs[0], orderIDs[2]}, r.order)
}

func TestMoveUp_UnknownIdentifier(t *testing.T) {
	s, _ := newOrderStore()
	err := s.MoveUp("{00000000-0000-0000-0000-000000000000}")
	require.ErrorIs(t, err, ErrEntryNotInOrder)
}

func TestSetDefault_RecordsAdvisoryValue(t *testing.T) {
	f := newFakeRunner()
	f.script("/default "+orderIDs[0], Result{})
	s := NewStore(f, LocaleEN, nil)

	require.NoError(t, s.SetDefault(orderIDs[0]))
	require.Equal(t, orderIDs[0], s.LastKnownDefault())

	// A rejected set must not move the advisory value.
	require.Error(t, s.SetDefault(orderIDs[1]))
	require.Equal(t, orderIDs[0], s.LastKnownDefault())
}

func TestSetTimeout_RejectsNegativeBeforeAnyCommand(t *testing.T) {
	f := newFakeRunner()
	s := NewStore(f, LocaleEN, nil)

	require.ErrorIs(t, s.SetTimeout(-1), ErrNegativeTimeout)
	require.Empty(t, f.calls)
}

func TestSetTimeout(t *testing.T) {
	f := newFakeRunner()
	f.script("/timeout 10", Result{})
	s := NewStore(f, LocaleEN, nil)

	require.NoError(t, s.SetTimeout(10))
	require.Equal(t, []string{"/timeout 10"}, f.argv())
}

func TestCreateEntry_CopyFailureIssuesNoFollowUps(t *testing.T) {
	f := newFakeRunner()
	f.script("/copy {current} /d Broken", Result{ExitCode: 1, Stderr: "access denied"})
	s := NewStore(f, LocaleEN, nil)

	id, err := s.CreateEntry("Broken", "partition=D:", `\loader.exe`, "osloader")
	require.ErrorIs(t, err, ErrToolRejected)
	require.Empty(t, id)
	// No orphaned property sets against a non-existent identifier.
	require.Equal(t, []string{"/copy {current} /d Broken"}, f.argv())
}

func TestCreateEntry_EmptyDescription(t *testing.T) {
	f := newFakeRunner()
	s := NewStore(f, LocaleEN, nil)

	_, err := s.CreateEntry("   ", "", "", "")
	require.ErrorIs(t, err, ErrEmptyDescription)
	require.Empty(t, f.calls)
}

func TestCreateEntry_FollowUpsFireAndContinue(t *testing.T) {
	newID := "{11111111-2222-3333-4444-555555555555}"
	f := newFakeRunner()
	f.script("/copy {current} /d Test", Result{Stdout: "The entry was successfully copied to " + newID + "."})
	f.script("/set "+newID+" device partition=D:", Result{})
	// osdevice stays unscripted and is rejected; the remaining follow-ups
	// must still run and the identifier must still be returned.
	f.script("/set "+newID+" path \\loader.exe", Result{})
	f.script("/set "+newID+" type osloader", Result{})
	s := NewStore(f, LocaleEN, nil)

	id, err := s.CreateEntry("Test", "partition=D:", `\loader.exe`, "osloader")
	require.NoError(t, err)
	require.Equal(t, newID, id)
	require.Equal(t, []string{
		"/copy {current} /d Test",
		"/set " + newID + " device partition=D:",
		"/set " + newID + " osdevice partition=D:",
		"/set " + newID + " path \\loader.exe",
		"/set " + newID + " type osloader",
	}, f.argv())
}

func TestCreateEntry_FollowUpSpawnFailureIsFatal(t *testing.T) {
	// A rejected follow-up only warns, but a follow-up the tool could not be
	// spawned for must abort the sequence and surface. The identifier still
	// comes back: the entry exists by then.
	newID := "{11111111-2222-3333-4444-555555555555}"
	f := newFakeRunner()
	f.script("/copy {current} /d Test", Result{Stdout: newID})
	f.spawnErr["/set "+newID+" device partition=D:"] = ErrToolUnavailable
	s := NewStore(f, LocaleEN, nil)

	id, err := s.CreateEntry("Test", "partition=D:", `\loader.exe`, "osloader")
	require.ErrorIs(t, err, ErrToolUnavailable)
	require.Equal(t, newID, id)
	require.Equal(t, []string{
		"/copy {current} /d Test",
		"/set " + newID + " device partition=D:",
	}, f.argv())
}

func TestCreateVHDEntry_FollowUpSpawnFailureIsFatal(t *testing.T) {
	newID := "{11111111-2222-3333-4444-555555555555}"
	f := newFakeRunner()
	f.script("/copy {current} /d VHD Boot", Result{Stdout: newID})
	f.script("/set "+newID+` device vhd=[C:\images\dev.vhdx]`, Result{})
	f.spawnErr["/set "+newID+` osdevice vhd=[C:\images\dev.vhdx]`] = ErrToolUnavailable
	s := NewStore(f, LocaleEN, nil)

	id, err := s.CreateVHDEntry("VHD Boot", `C:\images\dev.vhdx`)
	require.ErrorIs(t, err, ErrToolUnavailable)
	require.Equal(t, newID, id)
	require.Len(t, f.calls, 3)
}

func TestCreateEntry_NoIdentifierInOutput(t *testing.T) {
	f := newFakeRunner()
	f.script("/copy {current} /d Test", Result{Stdout: "copied, but to where?"})
	s := NewStore(f, LocaleEN, nil)

	_, err := s.CreateEntry("Test", "", "", "")
	require.ErrorIs(t, err, ErrNoIdentifier)
}

func TestCreateVHDEntry(t *testing.T) {
	newID := "{11111111-2222-3333-4444-555555555555}"
	f := newFakeRunner()
	f.script("/copy {current} /d VHD Boot", Result{Stdout: newID})
	s := NewStore(f, LocaleEN, nil)

	id, err := s.CreateVHDEntry("VHD Boot", `C:\images\dev.vhdx`)
	require.NoError(t, err)
	require.Equal(t, newID, id)
	require.Equal(t, []string{
		"/copy {current} /d VHD Boot",
		"/set " + newID + ` device vhd=[C:\images\dev.vhdx]`,
		"/set " + newID + ` osdevice vhd=[C:\images\dev.vhdx]`,
		"/set " + newID + " detecthal yes",
		"/set " + newID + " nx OptIn",
	}, f.argv())
}

func TestSetRamdisk_AllStepsRunAndResultsAreANDed(t *testing.T) {
	id := orderIDs[0]
	f := newFakeRunner()
	f.script("/set "+id+" ramdisksdidevice partition=C:", Result{})
	// ramdisksdipath stays unscripted and is rejected.
	f.script("/set "+id+" ramdisksdiprocessorarchitecture x64", Result{})
	s := NewStore(f, LocaleEN, nil)

	err := s.SetRamdisk(id, "partition=C:", `\boot.sdi`, "")
	require.ErrorIs(t, err, ErrToolRejected)
	// The failed middle step did not stop the third one: the operation can
	// partially apply even when reported as failed.
	require.Len(t, f.calls, 3)
}

func TestSetRamdisk_SpawnFailureAborts(t *testing.T) {
	id := orderIDs[0]
	f := newFakeRunner()
	f.spawnErr["/set "+id+" ramdisksdidevice partition=C:"] = ErrToolUnavailable
	s := NewStore(f, LocaleEN, nil)

	err := s.SetRamdisk(id, "partition=C:", `\boot.sdi`, "x64")
	require.ErrorIs(t, err, ErrToolUnavailable)
	require.Len(t, f.calls, 1)
}

func TestClearRamdisk_NeverReportsPartialFailure(t *testing.T) {
	id := orderIDs[0]
	f := newFakeRunner() // every deletion is rejected
	s := NewStore(f, LocaleEN, nil)

	require.NoError(t, s.ClearRamdisk(id))
	require.Equal(t, []string{
		"/deletevalue " + id + " ramdisksdidevice",
		"/deletevalue " + id + " ramdisksdipath",
		"/deletevalue " + id + " ramdisksdiprocessorarchitecture",
	}, f.argv())
}

func TestEnableKernelDebugging(t *testing.T) {
	id := orderIDs[0]
	f := newFakeRunner()
	f.script("/set "+id+" debug on", Result{})
	// Port and baud follow-ups stay unscripted; their rejection only warns.
	s := NewStore(f, LocaleEN, nil)

	require.NoError(t, s.EnableKernelDebugging(id, "COM1", "115200"))
	require.Equal(t, []string{
		"/set " + id + " debug on",
		"/set " + id + " debugport COM1",
		"/set " + id + " debugbaudrate 115200",
	}, f.argv())
}

func TestEnableKernelDebugging_ToggleFailureIsFatal(t *testing.T) {
	id := orderIDs[0]
	f := newFakeRunner()
	s := NewStore(f, LocaleEN, nil)

	require.ErrorIs(t, s.EnableKernelDebugging(id, "COM1", ""), ErrToolRejected)
	require.Len(t, f.calls, 1)
}

func TestEnableKernelDebugging_FollowUpSpawnFailureIsFatal(t *testing.T) {
	id := orderIDs[0]
	f := newFakeRunner()
	f.script("/set "+id+" debug on", Result{})
	f.spawnErr["/set "+id+" debugport COM1"] = ErrToolUnavailable
	s := NewStore(f, LocaleEN, nil)

	require.ErrorIs(t, s.EnableKernelDebugging(id, "COM1", "115200"), ErrToolUnavailable)
	require.Len(t, f.calls, 2)
}

func TestDisableKernelDebugging_CleanupSpawnFailureIsFatal(t *testing.T) {
	id := orderIDs[0]
	f := newFakeRunner()
	f.script("/set "+id+" debug off", Result{})
	f.spawnErr["/deletevalue "+id+" debugport"] = ErrToolUnavailable
	s := NewStore(f, LocaleEN, nil)

	require.ErrorIs(t, s.DisableKernelDebugging(id), ErrToolUnavailable)
	require.Len(t, f.calls, 2)
}

func TestDisableKernelDebugging(t *testing.T) {
	id := orderIDs[0]
	f := newFakeRunner()
	f.script("/set "+id+" debug off", Result{})
	s := NewStore(f, LocaleEN, nil)

	// Cleanup rejections of the optional properties are swallowed.
	require.NoError(t, s.DisableKernelDebugging(id))
	require.Equal(t, []string{
		"/set " + id + " debug off",
		"/deletevalue " + id + " debugport",
		"/deletevalue " + id + " debugbaudrate",
	}, f.argv())
}

func TestDeleteAndPropertyCommands(t *testing.T) {
	id := orderIDs[0]
	f := newFakeRunner()
	f.script("/delete "+id, Result{})
	f.script("/set "+id+" nx OptOut", Result{})
	f.script("/deletevalue "+id+" nx", Result{})
	f.script("/export "+`C:\backup.bcd`, Result{})
	f.script("/import "+`C:\backup.bcd`, Result{})
	s := NewStore(f, LocaleEN, nil)

	require.NoError(t, s.DeleteEntry(id))
	require.NoError(t, s.SetProperty(id, "nx", "OptOut"))
	require.NoError(t, s.DeleteProperty(id, "nx"))
	require.NoError(t, s.ExportStore(`C:\backup.bcd`))
	require.NoError(t, s.ImportStore(`C:\backup.bcd`))
}

func TestRejectionErrorMessage(t *testing.T) {
	f := newFakeRunner()
	s := NewStore(f, LocaleEN, nil)

	err := s.DeleteEntry(orderIDs[0])
	require.ErrorIs(t, err, ErrToolRejected)
	require.Contains(t, err.Error(), "exit 1")
	require.Contains(t, err.Error(), "unscripted")
}
