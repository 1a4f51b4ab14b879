package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Viewport is the world rectangle mapped onto the canvas, y up.
type Viewport struct {
	MinX, MaxX, MinY, MaxY float64
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
	view          Viewport
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		view:   Viewport{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1},
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) SetViewport(v Viewport) { c.view = v }

// Set lights the sub-pixel (x, y). The canvas is Width*2 by Height*4
// sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the sub-pixel (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// Pixel maps a world point to sub-pixel coordinates.
func (c *Canvas) Pixel(x, y float64) (int, int) {
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	px := (x - c.view.MinX) / (c.view.MaxX - c.view.MinX) * w
	py := (c.view.MaxY - y) / (c.view.MaxY - c.view.MinY) * h
	return int(math.Round(px)), int(math.Round(py))
}

// Point lights the world point (x, y).
func (c *Canvas) Point(x, y float64) {
	c.Set(c.Pixel(x, y))
}

// Segment draws a world-space line.
func (c *Canvas) Segment(x0, y0, x1, y1 float64) {
	px0, py0 := c.Pixel(x0, y0)
	px1, py1 := c.Pixel(x1, y1)
	c.DrawLine(px0, py0, px1, py1, 0)
}

// Dashed draws a world-space line lighting dash sub-pixels out of every
// 2*dash.
func (c *Canvas) Dashed(x0, y0, x1, y1 float64, dash int) {
	px0, py0 := c.Pixel(x0, y0)
	px1, py1 := c.Pixel(x1, y1)
	c.DrawLine(px0, py0, px1, py1, dash)
}

// DrawLine draws a line using Bresenham's algorithm. A positive dash skips
// every other run of dash pixels.
func (c *Canvas) DrawLine(x0, y0, x1, y1, dash int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for n := 0; ; n++ {
		if dash <= 0 || (n/dash)%2 == 0 {
			c.Set(x0, y0)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
