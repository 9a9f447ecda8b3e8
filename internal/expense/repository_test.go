package expense

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evcraddock/trackmate/internal/db"
	"github.com/evcraddock/trackmate/internal/visit"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return NewRepository(d)
}

func TestRepositoryAddAndList(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	split, err := Split(validInput(), time.Now())
	require.NoError(t, err)

	added, err := repo.Add(ctx, split)
	require.NoError(t, err)
	require.Len(t, added, 2)
	for _, e := range added {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.CreatedAt.IsZero())
	}

	older := validInput()
	older.Organizations = []string{"VIT"}
	older.Date = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	older.Category = visit.Placement
	more, err := Split(older, time.Now())
	require.NoError(t, err)
	_, err = repo.Add(ctx, more)
	require.NoError(t, err)

	sales, err := repo.List(ctx, visit.Sales)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, 1200.0, sales[0].SpentAmount)
	assert.Equal(t, "2025-02-22", sales[0].Date.Format("2006-01-02"))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "VIT", all[2].Organization)
}

func TestRepositoryAddIsAtomic(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	list := []Expense{
		{Category: visit.Sales, Organization: "ok", Date: time.Now()},
		{Category: "bogus", Organization: "bad", Date: time.Now()},
	}
	_, err := repo.Add(ctx, list)
	require.Error(t, err)

	got, err := repo.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}
