package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bootwright/bcdctl/pkg/bcd"
	"github.com/spf13/cobra"
)

func checkIdentifier(id string) error {
	if !bcd.ValidIdentifier(id) {
		return fmt.Errorf("not a boot entry identifier: %q", id)
	}
	return nil
}

func statusMarkers(st bcd.EntryStatus) string {
	var marks []string
	if st.IsDefault {
		marks = append(marks, "default")
	}
	if st.IsUEFI {
		marks = append(marks, "uefi")
	}
	if st.HasRamdisk {
		marks = append(marks, "ramdisk")
	}
	if st.IsMissing {
		marks = append(marks, "missing!")
	}
	if len(marks) == 0 {
		return ""
	}
	return " [" + strings.Join(marks, ", ") + "]"
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List boot entries with derived status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := store.ListIdentifiers()
			if len(ids) == 0 {
				return fmt.Errorf("no boot entries found; is the tool reachable?")
			}
			defaultID, _ := store.GetDefault()
			for _, id := range ids {
				entry, ok := store.GetEntry(id)
				if !ok {
					fmt.Printf("%s  <unreadable>\n", id)
					continue
				}
				st := store.Status(entry, defaultID, bcd.OSProber)
				fmt.Printf("%s  %-30s %s%s\n", id, store.Description(id), store.Device(id), statusMarkers(st))
			}
			return nil
		},
	}
}

func showCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <identifier>",
		Short: "Show one boot entry's properties and status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkIdentifier(args[0]); err != nil {
				return err
			}
			entry, ok := store.GetEntry(args[0])
			if !ok {
				return fmt.Errorf("entry %s could not be read", args[0])
			}
			if raw {
				fmt.Print(entry.Raw)
				return nil
			}
			defaultID, _ := store.GetDefault()
			st := store.Status(entry, defaultID, bcd.OSProber)

			keys := make([]string, 0, len(entry.Props))
			for k := range entry.Props {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%-36s %s\n", k, entry.Props[k])
			}
			fmt.Printf("%-36s %s\n", "status", strings.TrimSpace(statusMarkers(st)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the tool's raw dump for diagnostics")
	return cmd
}

func typesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the entry types present in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range store.EntryTypes() {
				fmt.Println(t)
			}
			return nil
		},
	}
}

func defaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "default",
		Short: "Show the default boot entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := store.GetDefault()
			if !ok {
				return fmt.Errorf("default entry could not be determined")
			}
			fmt.Println(id)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <identifier>",
		Short: "Make an entry the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkIdentifier(args[0]); err != nil {
				return err
			}
			return store.SetDefault(args[0])
		},
	})
	return cmd
}

func timeoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timeout",
		Short: "Show the boot-menu timeout in seconds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(store.GetTimeout())
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <seconds>",
		Short: "Set the boot-menu timeout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("timeout must be a number of seconds: %q", args[0])
			}
			return store.SetTimeout(seconds)
		},
	})
	return cmd
}

func orderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Show the boot-menu display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range store.GetDisplayOrder() {
				fmt.Println(id)
			}
			return nil
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <identifier>...",
			Short: "Replace the display order with the given list",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				for _, id := range args {
					if err := checkIdentifier(id); err != nil {
						return err
					}
				}
				return store.SetDisplayOrder(args)
			},
		},
		&cobra.Command{
			Use:   "up <identifier>",
			Short: "Move an entry one slot up in the display order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := checkIdentifier(args[0]); err != nil {
					return err
				}
				return store.MoveUp(args[0])
			},
		},
		&cobra.Command{
			Use:   "down <identifier>",
			Short: "Move an entry one slot down in the display order",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := checkIdentifier(args[0]); err != nil {
					return err
				}
				return store.MoveDown(args[0])
			},
		},
	)
	return cmd
}

func createCmd() *cobra.Command {
	var device, path, entryType string
	cmd := &cobra.Command{
		Use:   "create <description>",
		Short: "Create a boot entry by copying the running entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := store.CreateEntry(args[0], device, path, entryType)
			if err != nil {
				return err
			}
			// Follow-up configuration is fire-and-continue; show what the
			// store actually holds now.
			fmt.Println(id)
			return nil
		},
	}
	cmd.Flags().StringVar(&device, "device", "", "Boot device, e.g. partition=C:")
	cmd.Flags().StringVar(&path, "path", "", "Loader path")
	cmd.Flags().StringVar(&entryType, "type", "", "Entry type value")
	return cmd
}

func createVHDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-vhd <description> <vhd-file>",
		Short: "Create a boot entry for a virtual-disk image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := store.CreateVHDEntry(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Println(id)
			return nil
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <identifier>",
		Short: "Delete a boot entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkIdentifier(args[0]); err != nil {
				return err
			}
			return store.DeleteEntry(args[0])
		},
	}
}

func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <identifier> <key> <value>",
		Short: "Set a property on a boot entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkIdentifier(args[0]); err != nil {
				return err
			}
			return store.SetProperty(args[0], args[1], args[2])
		},
	}
}

func unsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <identifier> <key>",
		Short: "Remove a property from a boot entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkIdentifier(args[0]); err != nil {
				return err
			}
			return store.DeleteProperty(args[0], args[1])
		},
	}
}

func ramdiskCmd() *cobra.Command {
	var arch string
	cmd := &cobra.Command{
		Use:   "ramdisk",
		Short: "Manage an entry's ramdisk configuration",
	}
	add := &cobra.Command{
		Use:   "add <identifier> <sdi-device> <sdi-path>",
		Short: "Point an entry at a RAM-resident disk image",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkIdentifier(args[0]); err != nil {
				return err
			}
			return store.SetRamdisk(args[0], args[1], args[2], arch)
		},
	}
	add.Flags().StringVar(&arch, "arch", "x64", "Processor architecture for the ramdisk")
	cmd.AddCommand(
		add,
		&cobra.Command{
			Use:   "remove <identifier>",
			Short: "Remove an entry's ramdisk configuration",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := checkIdentifier(args[0]); err != nil {
					return err
				}
				return store.ClearRamdisk(args[0])
			},
		},
	)
	return cmd
}

func debugCmd() *cobra.Command {
	var port, baud string
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Manage kernel debugging for an entry",
	}
	on := &cobra.Command{
		Use:   "on <identifier>",
		Short: "Enable kernel debugging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkIdentifier(args[0]); err != nil {
				return err
			}
			return store.EnableKernelDebugging(args[0], port, baud)
		},
	}
	on.Flags().StringVar(&port, "port", "", "Debug port, e.g. COM1")
	on.Flags().StringVar(&baud, "baud", "", "Debug baud rate")
	cmd.AddCommand(
		on,
		&cobra.Command{
			Use:   "off <identifier>",
			Short: "Disable kernel debugging",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := checkIdentifier(args[0]); err != nil {
					return err
				}
				return store.DisableKernelDebugging(args[0])
			},
		},
	)
	return cmd
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export the boot store to an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return store.ExportStore(args[0])
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the boot store from an exported image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return store.ImportStore(args[0])
		},
	}
}
