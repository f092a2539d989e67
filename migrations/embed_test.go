package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryUpHasADown(t *testing.T) {
	names, err := fs.Glob(FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, up := range names {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := fs.Stat(FS, down)
		assert.NoError(t, err, "missing %s", down)
	}
}

func TestLedgerSchemaGuardsReversals(t *testing.T) {
	sql, err := fs.ReadFile(FS, "000001_create_ledger.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(sql), "reversal_of     VARCHAR(64) UNIQUE")
	assert.Contains(t, string(sql), "NUMERIC(18,2)")
}
