package bcd

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultTool is the boot-configuration executable driven by the gateway.
const DefaultTool = "bcdedit"

// Result captures one invocation of the external boot tool. A non-zero
// ExitCode is data, not an error: the tool ran and said no.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Ok reports whether the tool accepted the command.
func (r Result) Ok() bool {
	return r.ExitCode == 0
}

// Runner runs the external boot-configuration tool. One blocking process per
// call, argv in, decoded stdout/stderr/exit code out. Implementations never
// retry and return an error only when the process could not be spawned at
// all.
type Runner interface {
	Run(args ...string) (Result, error)
}

// ExecRunner is the os/exec backed Runner.
type ExecRunner struct {
	tool   string
	logger hclog.Logger
}

// NewExecRunner creates a runner for the given tool path. An empty path
// selects DefaultTool resolved through PATH.
func NewExecRunner(tool string, logger hclog.Logger) *ExecRunner {
	if tool == "" {
		tool = DefaultTool
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ExecRunner{tool: tool, logger: logger}
}

// Run spawns one tool process and waits for it. Spawn failure (missing
// binary, permission denied) wraps ErrToolUnavailable; a non-zero exit comes
// back in the Result with a nil error.
func (r *ExecRunner) Run(args ...string) (Result, error) {
	r.logger.Debug("🚀 Running boot tool", "tool", r.tool, "args", args)

	cmd := exec.Command(r.tool, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: decodeConsoleOutput(stdout.Bytes()),
		Stderr: decodeConsoleOutput(stderr.Bytes()),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			r.logger.Debug("⏹️ Boot tool exited", "code", res.ExitCode, "args", args)
			return res, nil
		}
		r.logger.Error("❌ Boot tool could not be started", "tool", r.tool, "error", err)
		return res, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}

	r.logger.Debug("✅ Boot tool completed", "stdout_bytes", stdout.Len())
	return res, nil
}

// decodeConsoleOutput turns raw tool output into a string, replacing
// undecodable bytes instead of failing. Localized Windows consoles emit
// UTF-16 or a legacy codepage depending on redirection mode, so the bytes
// are BOM-sniffed first and fed through a replacing decoder otherwise.
func decodeConsoleOutput(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	if looksUTF16(raw) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if out, _, err := transform.Bytes(dec, raw); err == nil {
			return string(out)
		}
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	// Invalid bytes become U+FFFD; this transform does not fail.
	out, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), raw)
	if err != nil {
		return string(bytes.ToValidUTF8(raw, []byte("�")))
	}
	return string(out)
}

// looksUTF16 sniffs a little-endian UTF-16 stream: an explicit BOM, or
// ASCII-range text whose odd bytes are NUL.
func looksUTF16(raw []byte) bool {
	if len(raw) >= 2 && raw[0] == 0xFF && raw[1] == 0xFE {
		return true
	}
	return len(raw) >= 2 && len(raw)%2 == 0 && raw[0] != 0x00 && raw[1] == 0x00
}
