package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	s := Load()
	assert.Equal(t, "127.0.0.1", s.PGHost)
	assert.Equal(t, "graphrag", s.PGDB)
	assert.Equal(t, "bolt://127.0.0.1:7687", s.Neo4jURI)
	assert.Equal(t, 10, s.EmbeddingBatchSize)
	assert.Equal(t, 1000, s.EmbeddingCacheSize)
	assert.Equal(t, 5, s.VectorTopK)
	assert.Contains(t, s.AllowedExtensions, ".txt")
	assert.Contains(t, s.AllowedExtensions, ".pdf")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PG_HOST", "db.internal")
	t.Setenv("GRAPHRAG_BATCH_SIZE", "25")
	t.Setenv("GRAPHRAG_ALLOWED_EXTENSIONS", ".txt, .sql")

	s := Load()
	assert.Equal(t, "db.internal", s.PGHost)
	assert.Equal(t, 25, s.EmbeddingBatchSize)
	assert.Equal(t, []string{".txt", ".sql"}, s.AllowedExtensions)
}

func TestLoadIgnoresInvalidInt(t *testing.T) {
	t.Setenv("GRAPHRAG_BATCH_SIZE", "not-a-number")
	s := Load()
	assert.Equal(t, 10, s.EmbeddingBatchSize)

	t.Setenv("GRAPHRAG_BATCH_SIZE", "-3")
	s = Load()
	assert.Equal(t, 10, s.EmbeddingBatchSize)
}

func TestValidate(t *testing.T) {
	s := &Settings{}
	assert.ErrorIs(t, s.Validate(), ErrMissingPGPassword)

	s.PGPwd = "pw"
	assert.ErrorIs(t, s.Validate(), ErrMissingNeo4jPassword)

	s.Neo4jPwd = "pw"
	assert.ErrorIs(t, s.Validate(), ErrMissingAPIKey)

	s.APIKey = "key"
	require.NoError(t, s.Validate())
}

func TestPGConnString(t *testing.T) {
	s := &Settings{PGUser: "u", PGPwd: "p", PGHost: "h", PGPort: "5432", PGDB: "d"}
	assert.Equal(t, "postgres://u:p@h:5432/d", s.PGConnString())
}
