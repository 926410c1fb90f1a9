package resolver

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/toolsascode/wildebeest/internal/model"
)

// DetectCycles reports a cycle among the resource's declared states, if any.
// The returned slice lists the states along the cycle in traversal order.
func DetectCycles(resource *model.Resource) ([]uuid.UUID, error) {
	edges := make(map[uuid.UUID][]uuid.UUID)
	for _, m := range resource.Migrations {
		if m.ToStateID() == uuid.Nil {
			continue
		}
		edges[m.FromStateID()] = append(edges[m.FromStateID()], m.ToStateID())
	}

	visited := make(map[uuid.UUID]bool)
	onPath := make(map[uuid.UUID]bool)
	var cyclePath []uuid.UUID
	closed := false

	var dfs func(id uuid.UUID) bool
	dfs = func(id uuid.UUID) bool {
		if onPath[id] {
			cyclePath = append(cyclePath, id)
			return true
		}
		if visited[id] {
			return false
		}

		onPath[id] = true
		for _, next := range edges[id] {
			if dfs(next) {
				if !closed {
					cyclePath = append(cyclePath, id)
					closed = id == cyclePath[0]
				}
				return true
			}
		}
		delete(onPath, id)
		visited[id] = true
		return false
	}

	// Walk roots in declaration order so the reported cycle is deterministic
	roots := []uuid.UUID{uuid.Nil}
	for _, s := range resource.States {
		roots = append(roots, s.ID)
	}
	for _, root := range roots {
		if visited[root] {
			continue
		}
		if dfs(root) {
			for i, j := 0, len(cyclePath)-1; i < j; i, j = i+1, j-1 {
				cyclePath[i], cyclePath[j] = cyclePath[j], cyclePath[i]
			}
			names := make([]string, len(cyclePath))
			for i, id := range cyclePath {
				names[i] = stateName(resource, id)
			}
			return cyclePath, fmt.Errorf("circular migration path detected: %s", strings.Join(names, " -> "))
		}
	}

	return nil, nil
}

func stateName(resource *model.Resource, id uuid.UUID) string {
	if id == uuid.Nil {
		return "non-existent"
	}
	if s := resource.StateForID(id); s != nil {
		return s.DisplayName()
	}
	return id.String()
}
