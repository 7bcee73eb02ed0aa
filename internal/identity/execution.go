package identity

import (
	"sync"

	"github.com/google/uuid"
	"github.com/spboyer/trxlogger/internal/models"
)

// ExecutionTable hands out execution ids. The first request for a record
// draws a random id; every later request for the same record returns it, so
// all sections that reference the record agree.
//
// A table belongs to a single document assembly and is discarded with it.
type ExecutionTable struct {
	mu  sync.Mutex
	ids map[*models.TestResult]uuid.UUID
}

// NewExecutionTable returns an empty table.
func NewExecutionTable() *ExecutionTable {
	return &ExecutionTable{ids: make(map[*models.TestResult]uuid.UUID)}
}

// IDFor returns the execution id for r.
func (t *ExecutionTable) IDFor(r *models.TestResult) uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id, ok := t.ids[r]; ok {
		return id
	}
	id := uuid.New()
	t.ids[r] = id
	return id
}

// Len returns the number of ids handed out so far.
func (t *ExecutionTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ids)
}
