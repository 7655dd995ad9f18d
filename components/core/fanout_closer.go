package core

// FanoutCloser propagates a close call to the registered closers.
//
// Closers are closed in reverse registration order, so a dependent resource
// is closed before the resource it depends on.
type FanoutCloser struct {
	nodes []closerNode
}

// Add registers closer with id to be notified when the close event happens.
func (c *FanoutCloser) Add(id string, closer Closer) {
	c.nodes = append(c.nodes, closerNode{id: id, closer: closer})
}

// Close all registered closers.
func (c *FanoutCloser) Close() error {
	for i := len(c.nodes) - 1; i >= 0; i-- {
		node := c.nodes[i]

		if err := node.closer.Close(); err != nil {
			LogErr.Printf("fanout-closer: failed to close: id=%s err=%v\n", node.id, err)
		}
	}

	return nil
}

type closerNode struct {
	id     string
	closer Closer
}
