package shardconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleYAML = `
Global:
  SecurityKey: global-key
DbConnections:
  - DbConnectionId: 1
    DbConnection:
      Server: meta.internal
      Database: metadb
ShardSets:
  - ShardSetName: widgets
    DefaultShardId: 1
    Read:
      SecurityKey: widgets-read-key
    Write:
      SecurityKey: widgets-write-key
    Shards:
      - ShardId: 1
        ReadConnection:
          Server: widgets-1-ro.internal
        WriteConnection:
          Server: widgets-1-rw.internal
      - ShardId: 2
        ReadConnection:
          Server: widgets-2-ro.internal
          SecurityKey: widgets-2-read-override
        WriteConnection:
          Server: widgets-2-rw.internal
`

func TestLoadParsesAndResolves(t *testing.T) {
	root, err := Load([]byte(sampleYAML))
	require.NoError(t, err)

	conn, ok := root.ConnectionByID(1)
	require.True(t, ok)
	require.Equal(t, "metadb", conn.DbConnection.Database)

	resolved, err := root.Resolve("widgets")
	require.NoError(t, err)
	require.Len(t, resolved, 2)

	require.Equal(t, uint16(1), resolved[0].ShardId)
	require.Equal(t, "widgets-1-ro.internal", resolved[0].Read.Server)
	require.Equal(t, "widgets-read-key", resolved[0].Read.SecurityKey, "shard 1 read inherits the role default")
	require.Equal(t, "widgets-1-rw.internal", resolved[0].Write.Server)
	require.Equal(t, uint16(1), resolved[0].DefaultShardId)

	require.Equal(t, uint16(2), resolved[1].ShardId)
	require.Equal(t, uint16(1), resolved[1].DefaultShardId, "every resolved shard carries the same shard-set default")
	require.Equal(t, "widgets-2-read-override", resolved[1].Read.SecurityKey, "shard overrides win over the role default")
	require.Equal(t, "widgets-write-key", resolved[1].Write.SecurityKey, "shard 2 write falls back all the way to the role default")
}

func TestResolveUnknownShardSet(t *testing.T) {
	root, err := Load([]byte(sampleYAML))
	require.NoError(t, err)

	_, err = root.Resolve("does-not-exist")
	require.Error(t, err)
}

func TestValidateRejectsDuplicateShardID(t *testing.T) {
	_, err := Load([]byte(`
ShardSets:
  - ShardSetName: widgets
    DefaultShardId: 1
    Shards:
      - ShardId: 1
      - ShardId: 1
`))
	require.Error(t, err)
}

func TestValidateRejectsBadDefaultShardID(t *testing.T) {
	_, err := Load([]byte(`
ShardSets:
  - ShardSetName: widgets
    DefaultShardId: 9
    Shards:
      - ShardId: 1
`))
	require.Error(t, err)
}

func TestValidateRejectsDuplicateDbConnectionID(t *testing.T) {
	_, err := Load([]byte(`
DbConnections:
  - DbConnectionId: 1
    DbConnection:
      Server: a
  - DbConnectionId: 1
    DbConnection:
      Server: b
`))
	require.Error(t, err)
}
