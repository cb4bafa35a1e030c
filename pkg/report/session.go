package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hmoritama/repolens/pkg/pipeline"
	"github.com/hmoritama/repolens/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// SessionLog persists each stage's raw prompt and output as timestamped
// files for later audit. Everything passes through secret redaction before
// touching disk.
type SessionLog struct {
	dir  string
	repo string
	now  func() time.Time
}

// NewSessionLog creates a session log writing under dir for the named
// repository.
func NewSessionLog(dir, repo string) *SessionLog {
	return &SessionLog{dir: dir, repo: repo, now: time.Now}
}

// Record writes one stage exchange as a log file. Returns the path
// written.
func (l *SessionLog) Record(ex pipeline.Exchange) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", errors.Errorf("creating log directory: %w", err)
	}

	ts := l.now().Format("20060102_150405")
	name := fmt.Sprintf("%s_%s_stage%d_%s.log",
		ts,
		text.SanitizeFilename(l.repo),
		ex.Stage,
		text.SanitizeFilename(ex.Name),
	)

	var sb strings.Builder
	fmt.Fprintf(&sb, "repository: %s\n", l.repo)
	fmt.Fprintf(&sb, "stage: %d (%s)\n", ex.Stage, ex.Name)
	fmt.Fprintf(&sb, "elapsed: %s\n", ex.Elapsed)
	fmt.Fprintf(&sb, "recorded: %s\n", l.now().Format(time.RFC3339))
	sb.WriteString("\n--- prompt ---\n\n")
	sb.WriteString(text.RedactSecrets(ex.Prompt))
	sb.WriteString("\n\n--- raw output ---\n\n")
	sb.WriteString(text.RedactSecrets(ex.RawOutput))
	sb.WriteString("\n")

	path := filepath.Join(l.dir, name)
	if err := writeAtomic(path, []byte(sb.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
