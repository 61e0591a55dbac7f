package shardset

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"

	"github.com/shardkit/shardkit/shardkey"
)

// HashFunction hashes a business key to a uint64 ring position.
type HashFunction interface {
	Hash(key string) uint64
}

// Murmur3Hash hashes via murmur3, the teacher's default.
type Murmur3Hash struct{}

func (Murmur3Hash) Hash(key string) uint64 {
	h := murmur3.New64()
	h.Write([]byte(key))
	return h.Sum64()
}

// XXHash hashes via xxhash, the teacher's alternate option.
type XXHash struct{}

func (XXHash) Hash(key string) uint64 {
	return xxhash.Sum64String(key)
}

type vnode struct {
	hash    uint64
	shardID shardkey.ID
}

// HashRouter picks a default shard id for a business key via consistent
// hashing with virtual nodes, so that adding or removing a shard only
// reshuffles the keys adjacent to it on the ring instead of every key.
// It answers "which shard should this new record default to", not "which
// shard already holds this record" — that answer lives in the key itself
// once assigned, per shardkey's own ShardID() accessor.
type HashRouter struct {
	hashFunc HashFunction
	vnodes   []vnode
}

// NewHashRouter builds an empty router using hashFunc (Murmur3Hash{} if
// nil).
func NewHashRouter(hashFunc HashFunction) *HashRouter {
	if hashFunc == nil {
		hashFunc = Murmur3Hash{}
	}
	return &HashRouter{hashFunc: hashFunc}
}

// AddShard places vnodeCount virtual nodes for shardID on the ring.
func (r *HashRouter) AddShard(shardID shardkey.ID, vnodeCount int) {
	for i := 0; i < vnodeCount; i++ {
		key := fmt.Sprintf("%d-vnode-%d", shardID, i)
		r.vnodes = append(r.vnodes, vnode{hash: r.hashFunc.Hash(key), shardID: shardID})
	}
	r.sort()
}

// RemoveShard removes every virtual node belonging to shardID.
func (r *HashRouter) RemoveShard(shardID shardkey.ID) {
	out := r.vnodes[:0]
	for _, v := range r.vnodes {
		if v.shardID != shardID {
			out = append(out, v)
		}
	}
	r.vnodes = out
}

// Route returns the shard id a business key maps to, and false if the ring
// is empty.
func (r *HashRouter) Route(key string) (shardkey.ID, bool) {
	if len(r.vnodes) == 0 {
		return 0, false
	}
	h := r.hashFunc.Hash(key)
	idx := sort.Search(len(r.vnodes), func(i int) bool { return r.vnodes[i].hash >= h })
	if idx == len(r.vnodes) {
		idx = 0
	}
	return r.vnodes[idx].shardID, true
}

// Shards returns every distinct shard id currently on the ring.
func (r *HashRouter) Shards() []shardkey.ID {
	seen := make(map[shardkey.ID]bool)
	var out []shardkey.ID
	for _, v := range r.vnodes {
		if !seen[v.shardID] {
			seen[v.shardID] = true
			out = append(out, v.shardID)
		}
	}
	return out
}

func (r *HashRouter) sort() {
	sort.Slice(r.vnodes, func(i, j int) bool { return r.vnodes[i].hash < r.vnodes[j].hash })
}
