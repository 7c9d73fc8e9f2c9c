package uid

import "github.com/bwmarrin/snowflake"

// Snowflake generates time-sortable numeric IDs using bwmarrin/snowflake.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a Snowflake generator for node 1.
func NewSnowflake() (*Snowflake, error) {
	return NewSnowflakeNode(1)
}

// NewSnowflakeNode returns a Snowflake generator bound to the given node ID.
func NewSnowflakeNode(nodeID int64) (*Snowflake, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new unique numeric ID.
func (s *Snowflake) Generate() uint64 {
	return uint64(s.node.Generate().Int64())
}
