package grid

// Unreachable is returned by ShortestPathLength when no path exists
const Unreachable = -1

// ShortestPathLength runs a breadth first search over the 4-connected grid
// and returns the number of moves on a shortest path from start to target.
// Obstacles and out of bounds cells are blocked. Each cell is expanded at most once.
func ShortestPathLength(start, target Coordinate, size Size, obstacles ObstacleSet) int {
	if start.Eq(target) {
		return 0
	}
	if !Walkable(start, size, obstacles) || !Walkable(target, size, obstacles) {
		return Unreachable
	}

	visited := map[Coordinate]bool{start: true}
	frontier := []Coordinate{start}
	for depth := 1; len(frontier) > 0; depth++ {
		next := make([]Coordinate, 0, len(frontier)*2)
		for _, cur := range frontier {
			for _, n := range cur.Neighbours() {
				if visited[n] || !Walkable(n, size, obstacles) {
					continue
				}
				if n.Eq(target) {
					return depth
				}
				visited[n] = true
				next = append(next, n)
			}
		}
		frontier = next
	}
	return Unreachable
}
