package logging

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Env knobs honored by NewLogger.
const (
	levelEnv = "BCDCTL_LOG_LEVEL"
	jsonEnv  = "BCDCTL_JSON_LOG"
)

// NewLogger builds the hclog logger used across bcdctl. An empty level falls
// back to BCDCTL_LOG_LEVEL and then to "warn", which keeps the boot tool's
// own output readable by default. BCDCTL_JSON_LOG=1 switches to JSON; plain
// output gets the bcdctl line prefix.
func NewLogger(name, level string, output io.Writer) hclog.Logger {
	if level == "" {
		level = os.Getenv(levelEnv)
	}
	if level == "" {
		level = "warn"
	}
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := os.Getenv(jsonEnv) == "1"
	if !jsonFormat {
		output = NewPrefixWriter("🥾 ", output)
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn:     func() time.Time { return time.Now().UTC() },
	})
}
