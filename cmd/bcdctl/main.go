package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/bootwright/bcdctl/internal/elevation"
	"github.com/bootwright/bcdctl/pkg/bcd"
	"github.com/bootwright/bcdctl/pkg/logging"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

const version = "0.2.0"

var (
	toolPath    string
	logLevel    string
	versionFlag bool

	rootCmd *cobra.Command
	logger  hclog.Logger
	store   *bcd.Store
)

// buildTimestamp reports the commit time stamped into the binary, when the
// build carried VCS info.
func buildTimestamp() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				return setting.Value
			}
		}
	}
	return "unknown"
}

func init() {
	rootCmd = &cobra.Command{
		Use:              "bcdctl",
		Short:            "Manage the machine's boot configuration",
		Long:             `Manage the machine's boot configuration by driving the external boot-configuration tool`,
		PersistentPreRun: setup,
		SilenceUsage:     true,
	}

	rootCmd.PersistentFlags().StringVar(&toolPath, "tool", "", "Path to the boot-configuration tool (default: bcdedit, or BCDCTL_TOOL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	rootCmd.AddCommand(
		listCmd(),
		showCmd(),
		typesCmd(),
		defaultCmd(),
		timeoutCmd(),
		orderCmd(),
		createCmd(),
		createVHDCmd(),
		deleteCmd(),
		setCmd(),
		unsetCmd(),
		ramdiskCmd(),
		debugCmd(),
		exportCmd(),
		importCmd(),
	)
}

func setup(cmd *cobra.Command, args []string) {
	logger = logging.NewLogger("bcdctl", logLevel, os.Stderr)

	tool := toolPath
	if tool == "" {
		tool = os.Getenv("BCDCTL_TOOL")
	}

	// Resolve the locale once; everything downstream receives it explicitly.
	locale := bcd.ResolveLocale(bcd.DetectSystemLocale())
	logger.Debug("🌍 Parsing with locale", "locale", locale)

	store = bcd.NewStore(bcd.NewExecRunner(tool, logger), locale, logger)

	if !elevation.IsElevated() {
		logger.Warn("⚠️ Not running elevated; write operations will likely be rejected")
	}
}

func main() {
	// Handle --version or -V before cobra parses other flags
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("bcdctl %s\n", version)
		fmt.Printf("Built: %s\n", buildTimestamp())
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
