package runset

import (
	"sort"

	"github.com/zonepipe/zonepipe/internal/domain/pipeline"
)

// Validate runs the three checks from §4.C against a validated pipeline and,
// on success, returns a StepSet ready for the Step Execution Engine:
//
//  1. DuplicateStep - enforced upstream by pipeline.Pipeline.Validate, and
//     re-checked here defensively since StepSet can also be built directly
//     from a slice of steps (e.g. in tests).
//  2. UnknownDependency - every depends-on name must resolve to a step in
//     the same set.
//  3. DependencyCycle - the dependency graph must be a DAG; cycles are
//     detected with Kahn's algorithm rather than DFS back-edge tracking;
//     steps left undrained are reported as the cycle's members. The drained
//     order itself is only counted, not returned.
func Validate(steps []pipeline.ValidatedStep) (*StepSet, error) {
	index := make(map[string]pipeline.ValidatedStep, len(steps))
	for _, s := range steps {
		if _, ok := index[s.Name]; ok {
			return nil, pipeline.NewDuplicateStepError(s.Name)
		}
		index[s.Name] = s
	}

	indegree := make(map[string]int, len(steps))
	dependents := make(map[string][]string, len(steps))
	for name := range index {
		indegree[name] = 0
	}
	for _, s := range steps {
		for _, dep := range s.DependencyNames() {
			if _, ok := index[dep]; !ok {
				return nil, pipeline.NewUnknownDependencyError(s.Name, dep)
			}
			indegree[s.Name]++
			dependents[dep] = append(dependents[dep], s.Name)
		}
	}

	var queue []string
	for name, deg := range indegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(steps))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		order = append(order, name)

		next := dependents[name]
		sort.Strings(next)
		for _, dep := range next {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
		sort.Strings(queue)
	}

	if len(order) != len(steps) {
		members := make([]string, 0)
		for name, deg := range indegree {
			if deg > 0 {
				members = append(members, name)
			}
		}
		sort.Strings(members)
		return nil, pipeline.NewDependencyCycleError(members)
	}

	return newStepSet(steps, dependents), nil
}
