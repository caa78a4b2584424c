package interleave

import "github.com/column-core/bsoncolumn/bsonvalue"

// merge attempts to produce a new reference that is a superset of both ref
// and cand (spec.md §4.3 "Merge"). It walks both left-to-right; when field
// names diverge it scans forward in the candidate to decide which side's
// field to emit first. O(N²) in field count, acceptable for small records.
func merge(ref *refNode, cand []bsonvalue.Element) (*refNode, bool) {
	var out []*refNode
	ri, ci := 0, 0
	refChildren := ref.children

	for ri < len(refChildren) || ci < len(cand) {
		switch {
		case ri >= len(refChildren):
			nn, ok := nodeFromElement(cand[ci])
			if !ok {
				return nil, false
			}
			out = append(out, nn)
			ci++

		case ci >= len(cand):
			out = append(out, refChildren[ri])
			ri++

		case refChildren[ri].name == cand[ci].FieldName():
			merged, ok := mergeField(refChildren[ri], cand[ci])
			if !ok {
				return nil, false
			}
			out = append(out, merged)
			ri++
			ci++

		default:
			if indexOfName(cand[ci:], refChildren[ri].name) >= 0 {
				nn, ok := nodeFromElement(cand[ci])
				if !ok {
					return nil, false
				}
				out = append(out, nn)
				ci++
			} else {
				out = append(out, refChildren[ri])
				ri++
			}
		}
	}

	return &refNode{isRecord: true, children: out}, true
}

// mergeField reconciles a single matching-name pair: two leaves are
// trivially compatible, two records recurse, and a leaf/record mismatch
// fails the merge.
func mergeField(refNode *refNode, candElem bsonvalue.Element) (*refNode, bool) {
	rec, isRec := candElem.AsRecord()
	if refNode.isRecord != isRec {
		return nil, false
	}
	if !isRec {
		return refNode, true
	}
	if refNode.empty() != rec.IsEmpty() {
		return nil, false
	}
	child, ok := merge(refNode, recordFields(rec))
	if !ok {
		return nil, false
	}
	child.name = refNode.name

	return child, true
}
