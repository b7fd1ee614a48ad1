package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMigrations_Embedded(t *testing.T) {
	pg, err := readMigrations(PostgresFS, "postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Equal(t, "001_mint_attempt_events.sql", pg[0].name)
	assert.Contains(t, pg[0].sql, "mint_attempt_events")

	ch, err := readMigrations(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	assert.Contains(t, ch[0].sql, "supply_snapshots")
}

func TestSplitStatements(t *testing.T) {
	input := `-- header comment
CREATE TABLE a (x UInt64) ENGINE = MergeTree() ORDER BY x;

-- second
CREATE TABLE b (y UInt64) ENGINE = MergeTree() ORDER BY y;
`
	stmts := splitStatements(input)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x UInt64) ENGINE = MergeTree() ORDER BY x", stmts[0])
	assert.Equal(t, "CREATE TABLE b (y UInt64) ENGINE = MergeTree() ORDER BY y", stmts[1])
}

func TestSplitStatements_EmbeddedClickhouse(t *testing.T) {
	ch, err := readMigrations(ClickhouseFS, "clickhouse")
	require.NoError(t, err)

	for _, m := range ch {
		require.NoError(t, validateNoSemicolonInStrings(m.sql), m.name)
		assert.NotEmpty(t, splitStatements(m.sql), m.name)
	}
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings("SELECT 'it''s'; SELECT 1;"))
	assert.Error(t, validateNoSemicolonInStrings("SELECT 'a;b';"))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://localhost:9000/wmm")
	require.NoError(t, err)
	assert.Equal(t, "wmm", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}
