// Package zigzag reorders square coefficient matrices into the diagonal
// zig-zag sequence used ahead of quantisation and entropy coding, and back.
//
// The traversal starts at (0,0) heading up and to the right. After every
// element the next move is chosen by the first boundary the cursor sits on,
// checked in this order: top row, bottom row, left column, right column.
// On the top or bottom row the cursor steps one column right; on the left or
// right column it steps one row down. Either way the element it lands on is
// emitted immediately, the diagonal direction flips and the cursor takes one
// diagonal step. Off the boundary it just takes one diagonal step.
//
// For an 8x8 matrix this yields the JPEG zig-zag order.
package zigzag

import (
	"errors"

	"golang.org/x/exp/constraints"
)

var (
	// ErrInvalidLength indicates the side length is not a positive power of two
	ErrInvalidLength = errors.New("side length must be a positive power of two")
	// ErrBufferSizeMismatch indicates a buffer does not hold exactly length*length elements
	ErrBufferSizeMismatch = errors.New("buffer size does not match length*length")
)

// Number is any element type a coefficient matrix can hold
type Number interface {
	constraints.Integer | constraints.Float
}

// direction of the diagonal step
type direction int

const (
	upRight direction = iota
	downLeft
)

func (d direction) flip() direction {
	if d == upRight {
		return downLeft
	}
	return upRight
}

// cursor walks a length x length matrix in zig-zag order
type cursor struct {
	row, col int
	length   int
	dir      direction
}

func (c *cursor) index() int { return c.row*c.length + c.col }

func (c *cursor) isTopRow() bool    { return c.row == 0 }
func (c *cursor) isBottomRow() bool { return c.row == c.length-1 }
func (c *cursor) isLeftCol() bool   { return c.col == 0 }
func (c *cursor) isRightCol() bool  { return c.col == c.length-1 }

func (c *cursor) diagonal() {
	if c.dir == upRight {
		c.row--
		c.col++
	} else {
		c.row++
		c.col--
	}
}

// walk calls visit with the matrix index of every element in zig-zag order.
// visit receives the sequence position alongside the matrix index.
func walk(length int, visit func(seq, idx int)) {
	total := length * length
	c := cursor{length: length, dir: upRight}
	seq := 0

	emit := func() {
		visit(seq, c.index())
		seq++
	}

	for seq < total {
		emit()
		if seq == total {
			return
		}

		switch {
		case c.isTopRow(), c.isBottomRow():
			c.col++
		case c.isLeftCol(), c.isRightCol():
			c.row++
		default:
			c.diagonal()
			continue
		}

		// Boundary bounce: the neighbour is emitted straight away and the
		// diagonal direction reverses.
		emit()
		c.dir = c.dir.flip()
		c.diagonal()
	}
}

// Order returns, for each position of the zig-zag sequence, the row-major
// index of the matrix element found there.
func Order(length int) ([]int, error) {
	if err := validateLength(length); err != nil {
		return nil, err
	}
	order := make([]int, length*length)
	walk(length, func(seq, idx int) {
		order[seq] = idx
	})
	return order, nil
}

// Scan reads the row-major length x length matrix src in zig-zag order
// and writes the sequence to dst.
func Scan[T Number](src, dst []T, length int) error {
	if err := validate(len(src), len(dst), length); err != nil {
		return err
	}
	walk(length, func(seq, idx int) {
		dst[seq] = src[idx]
	})
	return nil
}

// Descan is the inverse of Scan: src is read linearly and each value is
// stored at its zig-zag position in the row-major matrix dst.
func Descan[T Number](src, dst []T, length int) error {
	if err := validate(len(src), len(dst), length); err != nil {
		return err
	}
	walk(length, func(seq, idx int) {
		dst[idx] = src[seq]
	})
	return nil
}

func validate(srcLen, dstLen, length int) error {
	if err := validateLength(length); err != nil {
		return err
	}
	n := length * length
	if srcLen != n || dstLen != n {
		return ErrBufferSizeMismatch
	}
	return nil
}

func validateLength(length int) error {
	if length <= 0 || length&(length-1) != 0 {
		return ErrInvalidLength
	}
	return nil
}
