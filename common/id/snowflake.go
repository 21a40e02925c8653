// Package id hands out time-ordered snowflake ids for runs and run log rows.
package id

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	mu   sync.Mutex
	node *snowflake.Node
)

// Init fixes the node id. Later calls are ignored once a node exists, so it
// must run before the first New.
func Init(nodeID int64) error {
	mu.Lock()
	defer mu.Unlock()
	if node != nil {
		return nil
	}
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("creating snowflake node %d: %w", nodeID, err)
	}
	node = n
	return nil
}

// NodeID derives a node id from a host name so daemon replicas sharing a run
// log do not collide.
func NodeID(hostname string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(hostname))
	return int64(h.Sum32() % (1 << snowflake.NodeBits))
}

// New returns the next id. Without Init it uses node 0, which is fine for
// tests and one-off tools.
func New() int64 {
	mu.Lock()
	if node == nil {
		node, _ = snowflake.NewNode(0)
	}
	n := node
	mu.Unlock()
	return n.Generate().Int64()
}
