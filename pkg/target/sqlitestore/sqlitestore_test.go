package sqlitestore_test

import (
	"path/filepath"
	"testing"

	"github.com/sgaunet/review-importer/pkg/target"
	"github.com/sgaunet/review-importer/pkg/target/sqlitestore"
	"github.com/sgaunet/review-importer/pkg/target/storetest"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) target.Store {
		s, err := sqlitestore.New(filepath.Join(t.TempDir(), "review.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.db")
	s, err := sqlitestore.New(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateProject(t.Context(), &target.Project{Name: "core"}))
	require.NoError(t, s.Close())

	s, err = sqlitestore.New(path)
	require.NoError(t, err)
	defer s.Close()
	p, err := s.Project(t.Context(), "core")
	require.NoError(t, err)
	require.Equal(t, "core", p.Name)
}
