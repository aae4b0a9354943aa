package algo

import (
	"github.com/atharv3903/servicelocator/internal/apperr"
	"github.com/atharv3903/servicelocator/internal/model"
)

// Grid is an implicit 4-connected lattice. Nothing but its bounds is stored;
// neighbours are derived arithmetically.
type Grid struct {
	Rows int
	Cols int
}

func NewGrid(rows, cols int) (Grid, error) {
	if rows <= 0 || cols <= 0 {
		return Grid{}, apperr.Invalid("NewGrid", "grid dimensions must be positive, got %dx%d", rows, cols)
	}
	return Grid{Rows: rows, Cols: cols}, nil
}

func (g Grid) Size() int { return g.Rows * g.Cols }

func (g Grid) Contains(c model.Cell) bool {
	return c.Row >= 0 && c.Row < g.Rows && c.Col >= 0 && c.Col < g.Cols
}

func (g Grid) index(c model.Cell) int { return c.Row*g.Cols + c.Col }

func (g Grid) cell(i int) model.Cell { return model.Cell{Row: i / g.Cols, Col: i % g.Cols} }

var directions = [4]model.Cell{
	{Row: -1, Col: 0}, // up
	{Row: 1, Col: 0},  // down
	{Row: 0, Col: -1}, // left
	{Row: 0, Col: 1},  // right
}

// Neighbors appends the in-bounds 4-neighbours of c to buf and returns it.
func (g Grid) Neighbors(c model.Cell, buf []model.Cell) []model.Cell {
	for _, d := range directions {
		n := model.Cell{Row: c.Row + d.Row, Col: c.Col + d.Col}
		if g.Contains(n) {
			buf = append(buf, n)
		}
	}
	return buf
}

func manhattan(a, b model.Cell) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
