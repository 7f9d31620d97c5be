package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator 按时间递增的交付记录 ID
type Generator struct {
	node *snowflake.Node
}

// New 创建生成器；nodeID 取值 0-1023
func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("init snowflake node %d: %w", nodeID, err)
	}
	return &Generator{node: node}, nil
}

// Next 生成新的 ID（十进制字符串）
func (g *Generator) Next() string {
	return g.node.Generate().String()
}
