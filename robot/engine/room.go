package engine

import (
	"slices"

	"github.com/zyedidia/generic/mapset"
)

// Room is the static obstacle map plus the positions the robot has
// visited and cleaned during one run
type Room struct {
	cells   [][]CellKind
	visited mapset.Set[Position]
	cleaned mapset.Set[Position]
}

// NewRoom creates a room over the given cells. Rows may differ in length.
func NewRoom(cells [][]CellKind) *Room {
	return &Room{
		cells:   cells,
		visited: mapset.New[Position](),
		cleaned: mapset.New[Position](),
	}
}

// Rows returns the number of rows in the map
func (r *Room) Rows() int {
	return len(r.cells)
}

// Width returns the length of row y, or 0 when the row does not exist
func (r *Room) Width(y int) int {
	if y < 0 || y >= len(r.cells) {
		return 0
	}
	return len(r.cells[y])
}

// Cell returns the kind of the cell at pos; anything outside the map is OutOfRoom
func (r *Room) Cell(pos Position) CellKind {
	if pos.Y < 0 || pos.Y >= len(r.cells) {
		return OutOfRoom
	}
	// Jagged rows: bounds are per row
	if pos.X < 0 || pos.X >= len(r.cells[pos.Y]) {
		return OutOfRoom
	}
	return r.cells[pos.Y][pos.X]
}

// IsObstacle reports whether the robot cannot stand on pos
func (r *Room) IsObstacle(pos Position) bool {
	return r.Cell(pos) != Floor
}

// MarkVisited records pos as visited
func (r *Room) MarkVisited(pos Position) {
	r.visited.Put(pos)
}

// MarkCleaned records pos as cleaned
func (r *Room) MarkCleaned(pos Position) {
	r.cleaned.Put(pos)
}

// IsVisited reports whether pos has been visited
func (r *Room) IsVisited(pos Position) bool {
	return r.visited.Has(pos)
}

// IsCleaned reports whether pos has been cleaned
func (r *Room) IsCleaned(pos Position) bool {
	return r.cleaned.Has(pos)
}

// VisitedPositions returns the visited positions in row-major order
func (r *Room) VisitedPositions() []Position {
	return sortedPositions(r.visited)
}

// CleanedPositions returns the cleaned positions in row-major order
func (r *Room) CleanedPositions() []Position {
	return sortedPositions(r.cleaned)
}

// CountCells counts the cells of the given kind present in the map
func (r *Room) CountCells(kind CellKind) int {
	count := 0
	for _, row := range r.cells {
		for _, cell := range row {
			if cell == kind {
				count++
			}
		}
	}
	return count
}

func sortedPositions(set mapset.Set[Position]) []Position {
	positions := make([]Position, 0, set.Size())
	set.Each(func(pos Position) {
		positions = append(positions, pos)
	})
	slices.SortFunc(positions, Position.Compare)
	return positions
}
