package interleave

import "github.com/column-core/bsoncolumn/bsonvalue"

// refNode is one field of the reference record: either a leaf (delta-
// encoded by its own Scalar Encoder) or a nested record grouping further
// refNodes.
type refNode struct {
	name     string
	isRecord bool
	children []*refNode // only set when isRecord
	leaf     *leaf      // only set when !isRecord, after freezing
}

func (n *refNode) empty() bool {
	return n.isRecord && len(n.children) == 0
}

// numLeafFields counts leaf fields under n, recursively.
func (n *refNode) numLeafFields() int {
	if !n.isRecord {
		return 1
	}
	total := 0
	for _, c := range n.children {
		total += c.numLeafFields()
	}
	return total
}

// collectLeaves appends, in traversal order, every leaf refNode reachable from n.
func (n *refNode) collectLeaves(out []*refNode) []*refNode {
	if !n.isRecord {
		return append(out, n)
	}
	for _, c := range n.children {
		out = c.collectLeaves(out)
	}
	return out
}

// nodeFromElement builds a fresh refNode from a candidate field, recursing
// into nested records.
func nodeFromElement(el bsonvalue.Element) (*refNode, bool) {
	name := el.FieldName()
	rec, isRec := el.AsRecord()
	if !isRec {
		return &refNode{name: name}, true
	}
	var children []*refNode
	for f := range rec.Fields() {
		child, ok := nodeFromElement(f)
		if !ok {
			return nil, false
		}
		children = append(children, child)
	}
	return &refNode{name: name, isRecord: true, children: children}, true
}

// buildReference turns a whole record into its top-level reference node.
func buildReference(rec bsonvalue.Record) *refNode {
	root := &refNode{isRecord: true}
	for f := range rec.Fields() {
		child, ok := nodeFromElement(f)
		if !ok {
			// A field that can't form a reference node (shouldn't happen
			// for well-formed input) is left out of the reference.
			continue
		}
		root.children = append(root.children, child)
	}
	return root
}

func recordFields(rec bsonvalue.Record) []bsonvalue.Element {
	var out []bsonvalue.Element
	for f := range rec.Fields() {
		out = append(out, f)
	}
	return out
}

func indexOfName(fields []bsonvalue.Element, name string) int {
	for i, f := range fields {
		if f.FieldName() == name {
			return i
		}
	}
	return -1
}
