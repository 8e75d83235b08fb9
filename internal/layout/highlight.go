package layout

import "sort"

// ApplyHighlight moves the draw instances of the given body instances
// between their highlighted and normal draw sets. Only sets that gain or
// lose instances are touched; their keys are returned so the caller can
// re-upload just those buffers.
func (r *Result) ApplyHighlight(highlighted, unhighlighted []int) []DrawSetKey {
	if r.highlighted == nil {
		r.highlighted = make(map[int]bool)
	}
	changed := make(map[int32]bool)
	for _, b := range highlighted {
		if !r.highlighted[b] {
			r.highlighted[b] = true
			changed[int32(b)] = true
		}
	}
	for _, b := range unhighlighted {
		if r.highlighted[b] {
			delete(r.highlighted, b)
			changed[int32(b)] = true
		}
	}
	if len(changed) == 0 {
		return nil
	}

	touched := make(map[DrawSetKey]bool)
	for _, sets := range []DrawSets{r.SurfaceDrawSets, r.CurveDrawSets} {
		var moved []DrawInstance
		var movedKeys []DrawSetKey
		for key, set := range sets {
			kept := set.Instances[:0]
			for _, inst := range set.Instances {
				if changed[inst.Body] {
					moved = append(moved, inst)
					movedKeys = append(movedKeys, key)
					continue
				}
				kept = append(kept, inst)
			}
			if len(kept) != len(set.Instances) {
				touched[key] = true
			}
			set.Instances = kept
		}
		for i, inst := range moved {
			key := movedKeys[i]
			key.Highlighted = r.highlighted[int(inst.Body)]
			sets.add(key, inst)
			touched[key] = true
		}
		for key, set := range sets {
			if len(set.Instances) == 0 {
				delete(sets, key)
				continue
			}
			if touched[key] {
				sortInstances(set.Instances)
			}
		}
	}

	keys := make([]DrawSetKey, 0, len(touched))
	for k := range touched {
		keys = append(keys, k)
	}
	return keys
}

// Highlighted reports whether body instance i is highlighted.
func (r *Result) Highlighted(i int) bool {
	return r.highlighted[i]
}

func sortInstances(insts []DrawInstance) {
	sort.Slice(insts, func(i, j int) bool {
		if insts[i].Body != insts[j].Body {
			return insts[i].Body < insts[j].Body
		}
		return insts[i].Item < insts[j].Item
	})
}
