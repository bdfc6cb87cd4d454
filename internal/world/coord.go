// Package world provides the tile grid, terrain, town environments and
// world generation.
package world

import (
	"fmt"
	"math"
)

// Coord is a grid position packed into one word: two signed 31-bit
// integers, x in the high half and y in the low half. Arithmetic on packed
// values wraps within each 31-bit field.
type Coord uint64

const (
	fieldMask  = 0x7FFFFFFF
	packedMask = 0x7FFFFFFF7FFFFFFF
	unitXY     = 0x0000000100000001
)

// NullCoord is a sentinel that no packed position equals.
const NullCoord = Coord(^uint64(packedMask))

// Unit directions.
var (
	Up    = MakeCoord(0, 1)
	Down  = MakeCoord(0, -1)
	Left  = MakeCoord(-1, 0)
	Right = MakeCoord(1, 0)
)

// Directions lists the four grid neighbours in a fixed order.
var Directions = [4]Coord{Up, Right, Down, Left}

// MakeCoord packs x and y. Values outside the 31-bit range wrap.
func MakeCoord(x, y int) Coord {
	return Coord((uint64(x)&fieldMask)<<32 | uint64(y)&fieldMask)
}

// X returns the sign-extended x component.
func (c Coord) X() int {
	return int(int32(uint32(c>>32)<<1) >> 1)
}

// Y returns the sign-extended y component.
func (c Coord) Y() int {
	return int(int32(uint32(c)<<1) >> 1)
}

// Add returns c + o, component-wise.
func (c Coord) Add(o Coord) Coord {
	return (c + o) & packedMask
}

// Sub returns c - o, component-wise.
func (c Coord) Sub(o Coord) Coord {
	return (c + (o ^ packedMask) + unitXY) & packedMask
}

// Manhattan returns |dx| + |dy| between c and o.
func (c Coord) Manhattan(o Coord) int {
	return abs(c.X()-o.X()) + abs(c.Y()-o.Y())
}

// Len2 returns the squared euclidean length of c as a vector.
func (c Coord) Len2() int {
	x, y := c.X(), c.Y()
	return x*x + y*y
}

// Len returns the euclidean length of c as a vector.
func (c Coord) Len() float64 {
	return math.Sqrt(float64(c.Len2()))
}

// String formats c as "x,y", the form ParseCoord accepts.
func (c Coord) String() string {
	if c == NullCoord {
		return "null"
	}
	return fmt.Sprintf("%d,%d", c.X(), c.Y())
}

// ParseCoord parses "x,y".
func ParseCoord(s string) (Coord, error) {
	var x, y int
	if _, err := fmt.Sscanf(s, "%d,%d", &x, &y); err != nil {
		return NullCoord, fmt.Errorf("parse coordinate %q: %w", s, err)
	}
	return MakeCoord(x, y), nil
}

// MarshalText encodes c in its String form.
func (c Coord) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes the String form.
func (c *Coord) UnmarshalText(text []byte) error {
	if string(text) == "null" {
		*c = NullCoord
		return nil
	}
	parsed, err := ParseCoord(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
