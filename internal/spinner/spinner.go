// Package spinner shows progress on an interactive terminal while a long
// stream of test events is read.
package spinner

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const interval = 80 * time.Millisecond

// Start animates a spinner on w followed by the text returned by status,
// which is polled on every frame. Call the returned function to stop the
// spinner and clear the line.
func Start(w io.Writer, status func() string) (stop func()) {
	done := make(chan struct{})
	cleared := make(chan struct{})
	var stopOnce sync.Once
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		widest := 0
		for i := 0; ; i++ {
			select {
			case <-done:
				fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", widest)) //nolint:errcheck
				close(cleared)
				return
			case <-ticker.C:
				line := frames[i%len(frames)] + " " + status()
				width := runewidth.StringWidth(line)
				pad := ""
				if width < widest {
					pad = strings.Repeat(" ", widest-width)
				}
				widest = max(widest, width)
				fmt.Fprintf(w, "\r%s%s", line, pad) //nolint:errcheck
			}
		}
	}()
	return func() {
		stopOnce.Do(func() {
			close(done)
		})
		<-cleared
	}
}
