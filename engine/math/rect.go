package math

import "fmt"

// Rect is an axis aligned rectangle, origin at the top left.
type Rect struct {
	X, Y          float32
	Width, Height float32
}

func NewRect(x, y, width, height float32) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("Rect: [x=%f,y=%f,w=%f,h=%f]", r.X, r.Y, r.Width, r.Height)
}
