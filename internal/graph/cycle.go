package graph

// CycleCheck walks the graph component containing start and returns a
// *CycleDetectedError if the dependency edges form a cycle. The
// component is gathered over both input and output references so
// cycles upstream of start are found too; the cycle test itself
// follows output edges only, so diamond fan-in (several derived nodes
// reading one input and reconverging later) is not a cycle. A node
// appearing twice in an input's outputs list is also reported: edges
// are established once at construction, so a repeat means the graph
// was wired into itself.
//
// Nothing in the core ever calls this automatically: building a cyclic
// graph is a caller error that would otherwise surface as runaway
// dirty propagation, and this check is the opt-in diagnostic for it.
func CycleCheck(start AnyNode) error {
	component, err := collectComponent(start)
	if err != nil {
		return err
	}

	const (
		white = iota // unvisited
		gray         // on the active DFS path
		black        // fully explored
	)
	color := make(map[*nodeState]int, len(component))

	type frame struct {
		node AnyNode
		outs []AnyNode
		next int
	}

	for _, root := range component {
		if color[root.state()] != white {
			continue
		}
		color[root.state()] = gray
		stack := []*frame{{node: root, outs: root.Outputs()}}

		for len(stack) > 0 {
			f := stack[len(stack)-1]
			if f.next >= len(f.outs) {
				color[f.node.state()] = black
				stack = stack[:len(stack)-1]
				continue
			}
			nb := f.outs[f.next]
			f.next++

			switch color[nb.state()] {
			case gray:
				return &CycleDetectedError{NodeA: f.node.Name(), NodeB: nb.Name()}
			case white:
				color[nb.state()] = gray
				stack = append(stack, &frame{node: nb, outs: nb.Outputs()})
			}
		}
	}
	return nil
}

// collectComponent gathers every node connected to start through input
// or output references, failing on duplicate output entries.
func collectComponent(start AnyNode) ([]AnyNode, error) {
	visited := map[*nodeState]struct{}{start.state(): {}}
	component := []AnyNode{start}
	queue := []AnyNode{start}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		seenOut := make(map[*nodeState]struct{})
		for _, nb := range n.Outputs() {
			if _, dup := seenOut[nb.state()]; dup {
				return nil, &CycleDetectedError{NodeA: n.Name(), NodeB: nb.Name()}
			}
			seenOut[nb.state()] = struct{}{}
			if _, ok := visited[nb.state()]; ok {
				continue
			}
			visited[nb.state()] = struct{}{}
			component = append(component, nb)
			queue = append(queue, nb)
		}
		for _, nb := range n.Inputs() {
			if _, ok := visited[nb.state()]; ok {
				continue
			}
			visited[nb.state()] = struct{}{}
			component = append(component, nb)
			queue = append(queue, nb)
		}
	}
	return component, nil
}
