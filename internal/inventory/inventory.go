// Package inventory acquires the block-device inventory by running lsblk
// and handing its output to the blkdev parser. It is the only place in the
// daemon that spawns a process; everything downstream works on the
// already-captured text.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"blkd/pkg/blkdev"
	"blkd/pkg/shell"
)

var (
	ErrLsblkNotFound = errors.New("lsblk not found")

	// ErrInvalidOutput means lsblk succeeded but its stdout is not valid
	// UTF-8. Handing such bytes to the parser would let encoding/json
	// substitute U+FFFD inside string values, silently mutating device
	// names; the scan fails instead.
	ErrInvalidOutput = errors.New("lsblk produced non-UTF-8 output")
)

// UpstreamError means lsblk ran but reported failure. Stderr carries the
// captured diagnostic verbatim (invalid UTF-8 replaced).
type UpstreamError struct {
	ExitCode int
	Stderr   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("lsblk exited with code %d: %s", e.ExitCode, strings.TrimSpace(e.Stderr))
}

const DefaultTimeout = 5 * time.Second

// Scanner runs lsblk with a bounded timeout and parses the result.
type Scanner struct {
	bin     string
	timeout time.Duration
	logger  zerolog.Logger
}

func NewScanner(bin string, timeout time.Duration, logger zerolog.Logger) *Scanner {
	if bin == "" {
		bin = "lsblk"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Scanner{bin: bin, timeout: timeout, logger: logger}
}

// Collect produces a freshly parsed collection. Failures are never
// retried here; the caller decides policy.
func (s *Scanner) Collect(ctx context.Context) (*blkdev.Collection, error) {
	scanID := uuid.NewString()
	start := time.Now()

	col, err := s.collect(ctx)
	var ev *zerolog.Event
	if err != nil {
		ev = s.logger.Error().Err(err).Str("outcome", Outcome(err))
	} else {
		ev = s.logger.Info().Int("devices", col.Len())
	}
	ev.Str("scan_id", scanID).Dur("duration", time.Since(start)).Msg("lsblk scan")
	return col, err
}

func (s *Scanner) collect(ctx context.Context) (*blkdev.Collection, error) {
	if _, err := exec.LookPath(s.bin); err != nil {
		return nil, ErrLsblkNotFound
	}
	res, err := shell.Run(ctx, s.timeout, s.bin, "--json")
	if err != nil {
		if res.Code > 0 {
			return nil, &UpstreamError{
				ExitCode: res.Code,
				Stderr:   strings.ToValidUTF8(string(res.Stderr), "�"),
			}
		}
		return nil, fmt.Errorf("run %s: %w", s.bin, err)
	}
	if !utf8.Valid(res.Stdout) {
		return nil, ErrInvalidOutput
	}
	col, err := blkdev.Parse(res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("parse %s output: %w", s.bin, err)
	}
	return col, nil
}

// Outcome buckets a Collect error for logs and metrics: "ok", "upstream",
// "parse", or "acquisition".
func Outcome(err error) string {
	var ue *UpstreamError
	var se *blkdev.StructuralError
	var ne *blkdev.NormalizeError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &ue):
		return "upstream"
	case errors.As(err, &se), errors.As(err, &ne):
		return "parse"
	default:
		return "acquisition"
	}
}
