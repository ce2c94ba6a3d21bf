package main

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photoPreProcessor/gallery"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := openAndInitDB(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestKeywordHistoryCountsUses(t *testing.T) {
	db := openTestDB(t)
	for _, k := range []string{"beach", "sunset", "beach", "  ", "beach", "sunset", "alps"} {
		require.NoError(t, db.recordKeyword(k))
	}

	rows, err := db.listKeywords(0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "beach", rows[0].Value)
	assert.Equal(t, int64(3), rows[0].Uses)
	assert.Equal(t, "sunset", rows[1].Value)
	assert.Equal(t, "alps", rows[2].Value)
	assert.NotEmpty(t, rows[0].LastUsed)

	page, err := db.listKeywords(1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "sunset", page[0].Value)
}

func TestCopyrightHistoryIsSeparate(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.recordCopyright("Jane Doe"))
	require.NoError(t, db.recordKeyword("Jane Doe"))

	rows, err := db.listCopyrights(0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].Uses)
}

func TestAppliedRoundTrip(t *testing.T) {
	db := openTestDB(t)
	params := []gallery.Param{{Tag: "Keywords", Value: "a"}, {Tag: "Keywords", Value: "b"}}
	require.NoError(t, db.insertApplied(AppliedRow{JobID: "apply_1", Path: "/p/a.jpg", Params: params}))
	require.NoError(t, db.insertApplied(AppliedRow{JobID: "apply_1", Path: "/p/a.jpg", RenamedTo: "/p/x.jpg"}))
	require.NoError(t, db.insertApplied(AppliedRow{JobID: "apply_2", Path: "/p/b.jpg", Error: "boom"}))

	rows, err := db.listApplied("apply_1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, params, rows[0].Params)
	assert.Equal(t, "/p/x.jpg", rows[1].RenamedTo)
	assert.Less(t, rows[0].ID, rows[1].ID)

	none, err := db.listApplied("apply_missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClearDBTables(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.recordKeyword("k"))
	require.NoError(t, db.insertApplied(AppliedRow{JobID: "j", Path: "/p"}))

	require.NoError(t, db.clearDBTables())
	rows, err := db.listKeywords(0, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
	applied, err := db.listApplied("j")
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestRebindFollowsDriver(t *testing.T) {
	const query = `SELECT notice FROM copyright_history WHERE notice = ? OR uses > ?`

	raw, err := sql.Open("postgres", "sslmode=disable")
	require.NoError(t, err)
	defer raw.Close()
	pg := &DB{DB: sqlx.NewDb(raw, "postgres")}
	assert.Equal(t, `SELECT notice FROM copyright_history WHERE notice = $1 OR uses > $2`, pg.Rebind(query))

	lite := openTestDB(t)
	assert.Equal(t, "sqlite", lite.DriverName())
	assert.Equal(t, query, lite.Rebind(query))
}
