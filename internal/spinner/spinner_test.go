package spinner

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStart_PollsStatus(t *testing.T) {
	var out syncBuffer
	var polls atomic.Int32

	stop := Start(&out, func() string {
		polls.Add(1)
		return "Reading test events"
	})
	assert.Eventually(t, func() bool { return polls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	stop()

	s := out.String()
	assert.Contains(t, s, "Reading test events")
	assert.True(t, strings.HasSuffix(s, "\r"), "line should be cleared on stop")
}

func TestStart_StopIsIdempotent(t *testing.T) {
	var out syncBuffer
	stop := Start(&out, func() string { return "x" })
	stop()
	assert.NotPanics(t, stop)
}
