package types

import (
	"fmt"

	"github.com/zeu5/keygrid-rl/grid"
)

// StateKey is the discretized state used to index the Q table.
// Two states with the same position and key flag are identical for learning.
type StateKey struct {
	Position grid.Coordinate `json:"position"`
	HasKey   bool            `json:"has_key"`
}

func NewStateKey(position grid.Coordinate, hasKey bool) StateKey {
	return StateKey{Position: position, HasKey: hasKey}
}

func (s StateKey) String() string {
	k := 0
	if s.HasKey {
		k = 1
	}
	return fmt.Sprintf("%d,%d,%d", s.Position.X, s.Position.Y, k)
}
