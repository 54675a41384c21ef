package csg

import (
	"context"
	"log/slog"
)

// Simplify returns s with structurally identical materials and nodes folded
// into a single representative. Simplify is idempotent. All [Builder]
// combinators return simplified graphs so calling Simplify is only needed
// for graphs created by other means, such as [FromWire].
func (s SDF) Simplify() SDF {
	if s.IsEmpty() {
		return SDF{}
	}
	return s.simplify()
}

// simplify runs a single forward pass: materials are folded first since node
// equality depends on remapped material indices. Nodes only reference earlier
// nodes so by the time a node is visited its children are already canonical.
func (s SDF) simplify() SDF {
	materials := make([]Material, 0, len(s.materials))
	materialMap := make([]int, len(s.materials))
	seenMaterial := make(map[Material]int, len(s.materials))
	for i, m := range s.materials {
		j, seen := seenMaterial[m]
		if !seen {
			j = len(materials)
			seenMaterial[m] = j
			materials = append(materials, m)
		}
		materialMap[i] = j
	}

	nodes := make([]Node, 0, len(s.nodes))
	nodeMap := make([]int, len(s.nodes))
	seenNode := make(map[Node]int, len(s.nodes))
	for i, node := range s.nodes {
		switch node.Op {
		case OpSphere, OpPlane:
			node.A = materialMap[node.A]
		case OpUnion, OpIntersection, OpExclusion, OpSubtraction:
			node.A = nodeMap[node.A]
			node.B = nodeMap[node.B]
		default:
			panic("unknown op " + node.Op.String())
		}
		j, seen := seenNode[node]
		if !seen {
			j = len(nodes)
			seenNode[node] = j
			nodes = append(nodes, node)
		}
		nodeMap[i] = j
	}
	if root := nodeMap[len(s.nodes)-1]; root != len(nodes)-1 {
		// Root folded into an earlier node. Nodes after it are unreachable.
		nodes = nodes[:root+1]
	}
	if log := Logger(); log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("csg simplify",
			slog.Int("nodes", len(nodes)), slog.Int("foldedNodes", len(s.nodes)-len(nodes)),
			slog.Int("materials", len(materials)), slog.Int("foldedMaterials", len(s.materials)-len(materials)),
		)
	}
	return SDF{nodes: nodes, materials: materials}
}
