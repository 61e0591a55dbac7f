// Package shardconfig loads and resolves the YAML configuration schema
// spec.md §6 describes: a flat registry of database connections plus named
// shard sets, with global → shard-set → read/write role → shard precedence
// for connection settings.
package shardconfig

// ConnectionConfig is one layer of connection settings. Any field left
// empty means "inherit from the next-lower precedence layer" — see Resolve.
type ConnectionConfig struct {
	SecurityKey       string `yaml:"SecurityKey,omitempty"`
	DataResilienceKey string `yaml:"DataResilienceKey,omitempty"`
	Server            string `yaml:"Server,omitempty"`
	Database          string `yaml:"Database,omitempty"`
}

// merge overlays override onto base, field by field, and returns the
// result; an empty field in override leaves base's value untouched.
func merge(base, override ConnectionConfig) ConnectionConfig {
	if override.SecurityKey != "" {
		base.SecurityKey = override.SecurityKey
	}
	if override.DataResilienceKey != "" {
		base.DataResilienceKey = override.DataResilienceKey
	}
	if override.Server != "" {
		base.Server = override.Server
	}
	if override.Database != "" {
		base.Database = override.Database
	}
	return base
}

// DbConnection is one root-level flat database entry, addressable by id.
type DbConnection struct {
	DbConnectionId int              `yaml:"DbConnectionId"`
	DbConnection   ConnectionConfig `yaml:"DbConnection"`
}

// ShardConnection is one shard's read/write connection overrides within a
// ShardSet.
type ShardConnection struct {
	ShardId         uint16           `yaml:"ShardId"`
	ReadConnection  ConnectionConfig `yaml:"ReadConnection"`
	WriteConnection ConnectionConfig `yaml:"WriteConnection"`
}

// ShardSet is one named, independently shardable dataset: a default shard,
// read/write role defaults, and the shard list itself.
type ShardSet struct {
	ShardSetName   string            `yaml:"ShardSetName"`
	DefaultShardId uint16            `yaml:"DefaultShardId"`
	Read           ConnectionConfig  `yaml:"Read"`
	Write          ConnectionConfig  `yaml:"Write"`
	Shards         []ShardConnection `yaml:"Shards"`
}

// Root is the whole configuration document.
type Root struct {
	// Global holds settings that apply before any shard-set is consulted —
	// the lowest rung of spec.md §6's precedence ladder. It has no literal
	// key in the schema sketch spec.md shows; this module names it
	// explicitly so the ladder's bottom rung has somewhere to live.
	Global        ConnectionConfig `yaml:"Global,omitempty"`
	DbConnections []DbConnection   `yaml:"DbConnections"`
	ShardSets     []ShardSet       `yaml:"ShardSets"`
}

// ConnectionByID looks up a root-level flat database connection by id.
func (r *Root) ConnectionByID(id int) (DbConnection, bool) {
	for _, c := range r.DbConnections {
		if c.DbConnectionId == id {
			return c, true
		}
	}
	return DbConnection{}, false
}

// ShardSetByName looks up a named shard set.
func (r *Root) ShardSetByName(name string) (ShardSet, bool) {
	for _, s := range r.ShardSets {
		if s.ShardSetName == name {
			return s, true
		}
	}
	return ShardSet{}, false
}

// ResolvedShard is one shard's fully merged read and write connection
// settings, after the global → shard-set → role → shard precedence ladder
// has been applied.
type ResolvedShard struct {
	ShardId uint16
	Read    ConnectionConfig
	Write   ConnectionConfig

	// DefaultShardId carries the shard set's default shard id (spec.md §3:
	// "the shard map also carries a default shard id for unsharded
	// writes") alongside each resolved shard, so a caller building a
	// shardset.ShardMap out of this slice always has it at hand rather
	// than having to look ShardSet back up separately.
	DefaultShardId uint16
}

// Resolve applies spec.md §6's precedence (global → shard-set → read/write
// role → shard) to every shard in the named shard set.
func (r *Root) Resolve(shardSetName string) ([]ResolvedShard, error) {
	set, ok := r.ShardSetByName(shardSetName)
	if !ok {
		return nil, ErrUnknownShardSet(shardSetName)
	}

	readRoleDefault := merge(r.Global, set.Read)
	writeRoleDefault := merge(r.Global, set.Write)

	out := make([]ResolvedShard, 0, len(set.Shards))
	for _, shard := range set.Shards {
		out = append(out, ResolvedShard{
			ShardId:        shard.ShardId,
			Read:           merge(readRoleDefault, shard.ReadConnection),
			Write:          merge(writeRoleDefault, shard.WriteConnection),
			DefaultShardId: set.DefaultShardId,
		})
	}
	return out, nil
}
