package shardconfig

import "fmt"

// ErrUnknownShardSet reports that no shard set with the given name exists
// in the loaded configuration.
func ErrUnknownShardSet(name string) error {
	return fmt.Errorf("shardconfig: shard set %q not found", name)
}
