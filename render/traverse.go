package render

import "math"

// Traverse visits every cell crossed by the segment (x0,y0)-(x1,y1), cells being unit
// squares with integer corners (supercover DDA). The callback returns false to stop.
func Traverse(x0, y0, x1, y1 float64, callback func(x, y int) bool) {
	ix, iy := int(math.Floor(x0)), int(math.Floor(y0))
	tx, ty := int(math.Floor(x1)), int(math.Floor(y1))

	if !callback(ix, iy) || (ix == tx && iy == ty) {
		return
	}

	dx, dy := x1-x0, y1-y0
	stepX, stepY := 1, 1
	if dx < 0 {
		stepX, dx = -1, -dx
	}
	if dy < 0 {
		stepY, dy = -1, -dy
	}

	tMaxX, tDeltaX := math.Inf(1), math.Inf(1)
	if dx > 0 {
		tDeltaX = 1 / dx
		frac := x0 - math.Floor(x0)
		if stepX > 0 {
			tMaxX = (1 - frac) * tDeltaX
		} else {
			tMaxX = frac * tDeltaX
		}
	}
	tMaxY, tDeltaY := math.Inf(1), math.Inf(1)
	if dy > 0 {
		tDeltaY = 1 / dy
		frac := y0 - math.Floor(y0)
		if stepY > 0 {
			tMaxY = (1 - frac) * tDeltaY
		} else {
			tMaxY = frac * tDeltaY
		}
	}

	for ix != tx || iy != ty {
		switch {
		case tMaxX < tMaxY:
			if ix != tx {
				ix += stepX
				tMaxX += tDeltaX
			} else {
				iy += stepY
				tMaxY += tDeltaY
			}
		case tMaxX > tMaxY:
			if iy != ty {
				iy += stepY
				tMaxY += tDeltaY
			} else {
				ix += stepX
				tMaxX += tDeltaX
			}
		default:
			// Exact corner crossing steps both axes
			if ix != tx {
				ix += stepX
				tMaxX += tDeltaX
			}
			if iy != ty {
				iy += stepY
				tMaxY += tDeltaY
			}
		}
		if !callback(ix, iy) {
			return
		}
	}
}
