// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package survey

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/danielhkuo/quartier-diag/models"
)

// LabelResolver supplies a display name for a node whose metadata row has
// none. It returns false when no name is known.
type LabelResolver func(nodeID string) (string, bool)

// BuildGraph turns the flat node table into an ordered node list with
// child -> parent links.
//
// Parents are nodes whose ParentName is the root marker; a child names its
// parent by display name. Nodes with a value <= 0, nodes without a display
// name, parents without surviving children and children whose parent did not
// survive are dropped. Parents come first sorted by name, then children
// grouped by parent, each group sorted by name. Each link carries the child's
// value. A parent without a value of its own takes the sum of its children.
//
// Output depends only on the set of input rows, not their order.
func BuildGraph(values map[string]float64, nodes []models.NodeMetadata, resolve LabelResolver) models.Graph {
	rows := make([]models.NodeMetadata, len(nodes))
	copy(rows, nodes)
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.ParentName != b.ParentName {
			return a.ParentName < b.ParentName
		}
		return a.Source < b.Source
	})

	type parentEntry struct {
		node     models.GraphNode
		hasValue bool
		childSum float64
	}

	parentsByName := make(map[string]*parentEntry)
	seen := make(map[string]bool)
	var childRows []models.GraphNode
	var childParentNames []string

	for _, row := range rows {
		id := strings.TrimSpace(row.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		name := strings.TrimSpace(row.Name)
		if name == "" && resolve != nil {
			if n, ok := resolve(id); ok {
				name = strings.TrimSpace(n)
			}
		}
		if name == "" {
			slog.Debug("graph node dropped: no display name", "node_id", id)
			continue
		}

		source := strings.TrimSpace(row.Source)
		if source == "" {
			source = id
		}
		value, hasValue := values[source]

		node := models.GraphNode{ID: id, Name: name, Emoji: row.Emoji, Value: value}
		parentName := strings.TrimSpace(row.ParentName)

		if strings.EqualFold(parentName, models.RootParent) {
			if _, dup := parentsByName[name]; dup {
				slog.Debug("graph node dropped: duplicate parent name", "node_id", id, "name", name)
				continue
			}
			parentsByName[name] = &parentEntry{node: node, hasValue: hasValue}
			continue
		}

		if !hasValue || value <= 0 {
			continue
		}
		childRows = append(childRows, node)
		childParentNames = append(childParentNames, parentName)
	}

	// Link children to parents by name
	var resolved []models.GraphNode
	for i, child := range childRows {
		p, ok := parentsByName[childParentNames[i]]
		if !ok {
			slog.Debug("graph node dropped: unknown parent",
				"node_id", child.ID, "parent_name", childParentNames[i])
			continue
		}
		child.Parent = p.node.ID
		p.childSum += child.Value
		resolved = append(resolved, child)
	}

	for _, p := range parentsByName {
		n := p.node
		if !p.hasValue {
			n.Value = p.childSum
		}
		resolved = append(resolved, n)
	}

	return assemble(resolved, func(child, _ models.GraphNode) (float64, bool) {
		return child.Value, true
	})
}

// assemble orders nodes (parents by name, then children grouped by parent
// and sorted by name) and emits one link per child. Nodes with a value <= 0,
// parents without children and children without a parent are pruned.
// linkValue returns false when no link exists between a child and its parent.
func assemble(nodes []models.GraphNode, linkValue func(child, parent models.GraphNode) (float64, bool)) models.Graph {
	parents := make(map[string]models.GraphNode)
	children := make(map[string][]models.GraphNode)

	for _, n := range nodes {
		if n.Value <= 0 {
			continue
		}
		if n.Parent == "" {
			parents[n.ID] = n
		}
	}
	for _, n := range nodes {
		if n.Value <= 0 || n.Parent == "" {
			continue
		}
		if _, ok := parents[n.Parent]; !ok {
			continue
		}
		children[n.Parent] = append(children[n.Parent], n)
	}

	var ordered []models.GraphNode
	for id, p := range parents {
		if len(children[id]) > 0 {
			ordered = append(ordered, p)
		}
	}
	sortByName(ordered)

	g := models.Graph{
		Nodes: make([]models.GraphNode, 0, len(nodes)),
		Links: []models.GraphLink{},
	}
	g.Nodes = append(g.Nodes, ordered...)

	for parentIdx, p := range ordered {
		group := children[p.ID]
		sortByName(group)
		for _, c := range group {
			v, ok := linkValue(c, p)
			g.Nodes = append(g.Nodes, c)
			if !ok {
				continue
			}
			g.Links = append(g.Links, models.GraphLink{
				Source: len(g.Nodes) - 1,
				Target: parentIdx,
				Value:  v,
			})
		}
	}

	return g
}

func sortByName(nodes []models.GraphNode) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID < nodes[j].ID
	})
}
