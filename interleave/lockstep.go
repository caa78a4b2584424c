package interleave

import "github.com/column-core/bsoncolumn/bsonvalue"

// leafAction is one step of a lock-step or seeding walk: either deliver
// elem to leaf, or propagate a skip to it.
type leafAction struct {
	leaf *refNode
	elem bsonvalue.Element
	skip bool
}

// lockStep walks ref's children against cand in order. The candidate may
// omit reference fields (recorded as skips) but may not add new ones,
// reorder them, or change a leaf to a record or vice versa
// (spec.md §4.3 "Lock-step compatibility").
func lockStep(ref *refNode, cand []bsonvalue.Element) ([]leafAction, bool) {
	var actions []leafAction
	ci := 0
	for _, rf := range ref.children {
		if ci < len(cand) && cand[ci].FieldName() == rf.name {
			if rf.isRecord {
				rec, isRec := cand[ci].AsRecord()
				if !isRec {
					return nil, false
				}
				if rf.empty() != rec.IsEmpty() {
					return nil, false
				}
				childActions, ok := lockStep(rf, recordFields(rec))
				if !ok {
					return nil, false
				}
				actions = append(actions, childActions...)
			} else {
				if _, isRec := cand[ci].AsRecord(); isRec {
					return nil, false
				}
				actions = append(actions, leafAction{leaf: rf, elem: cand[ci]})
			}
			ci++
			continue
		}

		// rf is omitted in the candidate: every descendant leaf gets a skip.
		actions = append(actions, skipActions(rf)...)
	}

	if ci != len(cand) {
		return nil, false
	}

	return actions, true
}

func skipActions(n *refNode) []leafAction {
	if !n.isRecord {
		return []leafAction{{leaf: n, skip: true}}
	}
	var out []leafAction
	for _, c := range n.children {
		out = append(out, skipActions(c)...)
	}
	return out
}
