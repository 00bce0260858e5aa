package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a globally unique, time-ordered int64 ID. Server rows and
// client-side temporary ids draw from the same generator; distinct node ids
// per process keep them from colliding.
func New() int64 {
	return node.Generate().Int64()
}
