package uid

import "github.com/bwmarrin/snowflake"

// Snowflake generates 63-bit ids composed of a millisecond timestamp, a node
// number and a per-node sequence.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a generator for node, which must be within 0..1023.
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: n}, nil
}

// Generate returns the next id.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
