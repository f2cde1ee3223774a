package selection

import (
	"fmt"

	"github.com/pders01/ytspot/internal/storage"
)

// Recorder implements Actions and Effects by appending a line per call to
// Events. It is meant for tests and dry runs.
type Recorder struct {
	Events []string
}

func (r *Recorder) CopyLink(t storage.Ticket) { r.add("copy %s", t.ID) }
func (r *Recorder) OpenURL(t storage.Ticket)  { r.add("open %s", t.ID) }
func (r *Recorder) Dismiss()                  { r.add("dismiss") }
func (r *Recorder) ScrollIntoView(index int)  { r.add("scroll-into-view %d", index) }
func (r *Recorder) ScrollToTop()              { r.add("scroll-to-top") }

// Reset drops everything recorded so far.
func (r *Recorder) Reset() { r.Events = nil }

func (r *Recorder) add(format string, args ...any) {
	r.Events = append(r.Events, fmt.Sprintf(format, args...))
}
