package audit_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sgaunet/review-importer/pkg/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "audit.jsonl")
	log := audit.New(path)

	entries, err := log.Entries(nil)
	require.NoError(t, err)
	assert.Empty(t, entries)

	first, err := log.Append(audit.Entry{Operation: "import", Project: "app", Outcome: audit.OutcomeSuccess, Counts: map[string]int{"changesCreated": 3}})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.Timestamp.IsZero())

	_, err = log.Append(audit.Entry{Operation: "resume", Project: "lib", Outcome: audit.OutcomeFailure, Error: "boom"})
	require.NoError(t, err)

	all, err := log.Entries(nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, 3, all[0].Counts["changesCreated"])
	assert.Equal(t, "boom", all[1].Error)

	app, err := log.ForProject("app")
	require.NoError(t, err)
	require.Len(t, app, 1)
	assert.Equal(t, "import", app[0].Operation)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConcurrentAppends(t *testing.T) {
	log := audit.New(filepath.Join(t.TempDir(), "audit.jsonl"))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := log.Append(audit.Entry{Operation: "import", Outcome: audit.OutcomeSuccess})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	all, err := log.Entries(nil)
	require.NoError(t, err)
	assert.Len(t, all, 20)
}

func TestInvalidLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"id\":\"x\"}\nnot json\n"), 0o600))

	_, err := audit.New(path).Entries(nil)
	require.ErrorContains(t, err, "line 2")
}
