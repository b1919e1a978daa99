package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"catalog-sync/internal/domain"
	"catalog-sync/internal/timezone"
)

// ChangeLog appends one collapsible markdown entry per run to a file that is
// meant to be browsed on a git host.
type ChangeLog struct {
	Path  string
	Clock timezone.Clock
}

func NewChangeLog(path string, clock timezone.Clock) *ChangeLog {
	return &ChangeLog{Path: path, Clock: clock}
}

// Append writes an entry even when nothing changed, so the log doubles as a
// record of when the job ran.
func (l *ChangeLog) Append(at time.Time, runID string, t domain.Transitions) error {
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("report: open %s: %w", l.Path, err)
	}
	if err := WriteEntry(f, l.Clock.Format(at), runID, t); err != nil {
		_ = f.Close()
		return fmt.Errorf("report: write %s: %w", l.Path, err)
	}
	return f.Close()
}

func (l *ChangeLog) Artifacts() []string { return []string{l.Path} }

type section struct {
	emoji   string
	title   string
	courses []domain.Course
}

// WriteEntry renders a single log entry. Empty sections are omitted.
func WriteEntry(w io.Writer, at, runID string, t domain.Transitions) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\n<details>\n<summary>📊 Sync %s 📈(%d)|📉(%d)|♻️(%d)</summary>\n\n",
		at, len(t.New), len(t.Expired), len(t.Revived))
	if runID != "" {
		fmt.Fprintf(bw, "<!-- run %s -->\n", runID)
	}

	for _, s := range []section{
		{"📈", "New courses", t.New},
		{"📉", "Expired courses", t.Expired},
		{"♻️", "Revived courses", t.Revived},
	} {
		if len(s.courses) == 0 {
			continue
		}
		fmt.Fprintf(bw, "\n<details>\n<summary>%s %s (%d)</summary>\n\n", s.emoji, s.title, len(s.courses))
		for _, c := range s.courses {
			fmt.Fprintf(bw, "- [%s](%s) | %s\n", linkText(c.Title), c.CourseURL, c.Center)
		}
		bw.WriteString("</details>\n")
	}

	bw.WriteString("</details>\n")
	return bw.Flush()
}

var linkEscaper = strings.NewReplacer("[", `\[`, "]", `\]`, "\n", " ")

func linkText(s string) string {
	return linkEscaper.Replace(strings.TrimSpace(s))
}
