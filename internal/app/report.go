package app

import (
	"fmt"
	"io"
	"sync"

	"github.com/five82/hitch/internal/busy"
)

// ReportProgress prints each new busy message to w, one line per message.
// It is how CLI commands surface the same status text the TUI overlay shows.
func ReportProgress(coord *busy.Coordinator, w io.Writer) (unsubscribe func()) {
	var (
		mu   sync.Mutex
		last string
	)
	return coord.Subscribe(func(s busy.Status) {
		mu.Lock()
		defer mu.Unlock()

		if !s.Busy {
			last = ""
			return
		}
		if s.Message == "" || s.Message == last {
			return
		}
		last = s.Message
		fmt.Fprintf(w, "%s...\n", s.Message)
	})
}
