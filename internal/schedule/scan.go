package schedule

// Cell addresses one grid position.
type Cell struct {
	Row int
	Col int
}

// Boustrophedon returns the scan order used for activation: even rows run
// left to right, odd rows right to left.
func Boustrophedon(h, w int) []Cell {
	if h <= 0 || w <= 0 {
		return nil
	}
	out := make([]Cell, 0, h*w)
	for r := 0; r < h; r++ {
		if r%2 == 0 {
			for c := 0; c < w; c++ {
				out = append(out, Cell{Row: r, Col: c})
			}
			continue
		}
		for c := w - 1; c >= 0; c-- {
			out = append(out, Cell{Row: r, Col: c})
		}
	}
	return out
}
