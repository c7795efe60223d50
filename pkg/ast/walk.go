package ast

// Walk traverses the tree rooted at n in depth-first pre-order.
// If fn returns false the children of the current node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Find returns every node of type T reachable from root, in traversal order.
func Find[T Node](root Node) []T {
	var out []T
	Walk(root, func(n Node) bool {
		if t, ok := n.(T); ok {
			out = append(out, t)
		}
		return true
	})
	return out
}

// Count returns the number of nodes per NodeType in the tree rooted at root.
func Count(root Node) map[string]int {
	counts := make(map[string]int)
	Walk(root, func(n Node) bool {
		counts[n.NodeType()]++
		return true
	})
	return counts
}
