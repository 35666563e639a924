// Package idgen hands out bill ids.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"
)

// Generator produces unique, time-ordered int64 ids.
type Generator interface {
	NextID() int64
}

// Snowflake generates ids from a snowflake node. Ids are unique across
// nodes as long as every process uses its own node number.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for the given node number (0-1023).
func NewSnowflake(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", nodeID, err)
	}
	return &Snowflake{node: node}, nil
}

func (s *Snowflake) NextID() int64 {
	return s.node.Generate().Int64()
}

// Sequence returns ids counting up from start. Tests use it for
// predictable ids.
type Sequence struct {
	next atomic.Int64
}

func NewSequence(start int64) *Sequence {
	s := &Sequence{}
	s.next.Store(start)
	return s
}

func (s *Sequence) NextID() int64 {
	return s.next.Add(1) - 1
}
