package shardconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load parses a YAML document into a Root and validates it.
func Load(data []byte) (*Root, error) {
	var root Root
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("shardconfig: parse: %w", err)
	}
	if err := validate(&root); err != nil {
		return nil, err
	}
	return &root, nil
}

// LoadFile reads path and parses it as Load does.
func LoadFile(path string) (*Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shardconfig: read %s: %w", path, err)
	}
	return Load(data)
}

// validate rejects a configuration that cannot possibly resolve: duplicate
// shard-set names, duplicate shard ids within a set, or a shard set whose
// DefaultShardId isn't one of its own shards.
func validate(root *Root) error {
	seenSets := make(map[string]bool, len(root.ShardSets))
	for _, set := range root.ShardSets {
		if set.ShardSetName == "" {
			return fmt.Errorf("shardconfig: a shard set has an empty ShardSetName")
		}
		if seenSets[set.ShardSetName] {
			return fmt.Errorf("shardconfig: duplicate shard set name %q", set.ShardSetName)
		}
		seenSets[set.ShardSetName] = true

		seenShards := make(map[uint16]bool, len(set.Shards))
		hasDefault := false
		for _, shard := range set.Shards {
			if seenShards[shard.ShardId] {
				return fmt.Errorf("shardconfig: shard set %q has duplicate shard id %d", set.ShardSetName, shard.ShardId)
			}
			seenShards[shard.ShardId] = true
			if shard.ShardId == set.DefaultShardId {
				hasDefault = true
			}
		}
		if len(set.Shards) > 0 && !hasDefault {
			return fmt.Errorf("shardconfig: shard set %q's DefaultShardId %d is not one of its shards", set.ShardSetName, set.DefaultShardId)
		}
	}

	seenConns := make(map[int]bool, len(root.DbConnections))
	for _, c := range root.DbConnections {
		if seenConns[c.DbConnectionId] {
			return fmt.Errorf("shardconfig: duplicate DbConnectionId %d", c.DbConnectionId)
		}
		seenConns[c.DbConnectionId] = true
	}
	return nil
}
