package compiler

import "fmt"

// topologicalOrder builds the module dependency graph and returns an
// emission order via Kahn's algorithm (§4.F): in-degree counts incoming
// edges from (a) every module that imports this one by path and (b) every
// module whose import-variable map references one of this module's fields
// by name. The initial queue of zero-in-degree nodes therefore starts with
// the roots (modules nothing else imports), processes outward, and is
// finally reversed so that every dependency has already been emitted (with
// its exports populated) before the module that needs them.
func topologicalOrder(modules []*module) ([]int, error) {
	pathIndex := make(map[string]int, len(modules))
	nameIndex := make(map[string]int, len(modules))
	for i, m := range modules {
		pathIndex[m.path] = i
		nameIndex[m.name] = i
	}

	inDegree := make([]int, len(modules))
	for _, m := range modules {
		for _, path := range m.imports {
			if idx, ok := pathIndex[path]; ok {
				inDegree[idx]++
			}
		}
		for _, either := range m.variables {
			if either.IsResolved {
				continue
			}
			if idx, ok := nameIndex[either.ModuleName]; ok {
				inDegree[idx]++
			}
		}
	}

	queue := make([]int, 0, len(modules))
	for idx, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, idx)
		}
	}

	sorted := make([]int, 0, len(modules))
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		sorted = append(sorted, idx)

		m := modules[idx]
		for _, path := range m.imports {
			childIdx, ok := pathIndex[path]
			if !ok {
				continue
			}
			inDegree[childIdx]--
			if inDegree[childIdx] == 0 {
				queue = append(queue, childIdx)
			}
		}
		for _, either := range m.variables {
			if either.IsResolved {
				continue
			}
			childIdx, ok := nameIndex[either.ModuleName]
			if !ok {
				continue
			}
			inDegree[childIdx]--
			if inDegree[childIdx] == 0 {
				queue = append(queue, childIdx)
			}
		}
	}

	if len(sorted) != len(modules) {
		return nil, fmt.Errorf("compiler: cyclic module dependency detected")
	}

	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}
	return sorted, nil
}
