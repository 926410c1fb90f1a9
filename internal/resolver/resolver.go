// Package resolver enumerates migration paths through a resource's state graph.
package resolver

import (
	"fmt"
	"iter"
	"strings"

	"github.com/google/uuid"

	"github.com/toolsascode/wildebeest/internal/model"
)

// Path is an ordered sequence of migrations leading from one state to another
type Path []model.Migration

// IDs returns the migration ids along the path
func (p Path) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(p))
	for i, m := range p {
		ids[i] = m.MigrationID()
	}
	return ids
}

// frame is one entry on the explicit DFS work stack
type frame struct {
	at   uuid.UUID
	path Path
}

// Paths lazily yields every path from "from" to "target" in migration
// declaration order. uuid.Nil stands for the non-existent state on either
// end, so Paths(r, uuid.Nil, uuid.Nil) yields exactly the empty path.
//
// A path is complete as soon as it reaches the target. Only simple paths
// are explored: a migration leading back to a state already on the path,
// non-existent included, is skipped, so destroy and create edges never loop.
// A path longer than the number of declared migrations must still repeat an
// edge, so it is reported as a cycle error and enumeration stops.
func Paths(resource *model.Resource, from, target uuid.UUID) iter.Seq2[Path, error] {
	return func(yield func(Path, error) bool) {
		maxDepth := len(resource.Migrations)
		stack := []frame{{at: from, path: Path{}}}

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if top.at == target {
				if !yield(top.path, nil) {
					return
				}
				continue
			}

			// Push in reverse so the first declared migration is explored first
			for i := len(resource.Migrations) - 1; i >= 0; i-- {
				m := resource.Migrations[i]
				if m.FromStateID() != top.at || visits(from, top.path, m.ToStateID()) {
					continue
				}
				next := make(Path, len(top.path), len(top.path)+1)
				copy(next, top.path)
				next = append(next, m)
				if len(next) > maxDepth {
					yield(nil, cycleError(next))
					return
				}
				stack = append(stack, frame{at: m.ToStateID(), path: next})
			}
		}
	}
}

// FindPaths collects every path from "from" to "target"
func FindPaths(resource *model.Resource, from, target uuid.UUID) ([]Path, error) {
	var paths []Path
	for p, err := range Paths(resource, from, target) {
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// Unique returns the single path from "from" to "target". No path is
// model.KindMigrationNotPossible; more than one is model.KindAmbiguousPath.
func Unique(resource *model.Resource, from, target uuid.UUID) (Path, error) {
	var found Path
	count := 0
	for p, err := range Paths(resource, from, target) {
		if err != nil {
			return nil, err
		}
		count++
		if count == 1 {
			found = p
		}
	}

	switch count {
	case 0:
		return nil, model.NewMigrationNotPossible(from, target)
	case 1:
		return found, nil
	default:
		return nil, model.NewAmbiguousPath(from, target, count)
	}
}

// visits reports whether a path starting at from passes through state
func visits(from uuid.UUID, path Path, state uuid.UUID) bool {
	if from == state {
		return true
	}
	for _, m := range path {
		if m.ToStateID() == state {
			return true
		}
	}
	return false
}

func cycleError(path Path) error {
	steps := make([]string, 0, len(path))
	for _, m := range path {
		steps = append(steps, m.MigrationID().String())
	}
	return &model.Error{
		Kind:    model.KindMigrationNotPossible,
		Message: fmt.Sprintf("migration graph contains a cycle: %s", strings.Join(steps, " -> ")),
	}
}
