package effects

import (
	"math/rand/v2"
	"strings"
)

var flakeRunes = []rune{'❄', '*', '·', '❅'}

type flake struct {
	x, y  int
	speed int // rows per step, 1..2
	r     rune
}

// Snow is a text snowfall field. Not safe for concurrent use.
type Snow struct {
	w, h   int
	flakes []flake
	rng    *rand.Rand
}

// NewSnow seeds n flakes over a w×h field. The same seed yields the same frames.
func NewSnow(w, h, n int, seed uint64) *Snow {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	s := &Snow{w: w, h: h, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	s.flakes = make([]flake, n)
	for i := range s.flakes {
		s.flakes[i] = s.spawn(s.rng.IntN(h))
	}
	return s
}

func (s *Snow) spawn(y int) flake {
	return flake{
		x:     s.rng.IntN(s.w),
		y:     y,
		speed: 1 + s.rng.IntN(2),
		r:     flakeRunes[s.rng.IntN(len(flakeRunes))],
	}
}

// Step moves every flake down with a little sideways drift; flakes leaving the
// bottom re-enter at the top.
func (s *Snow) Step() {
	for i := range s.flakes {
		f := &s.flakes[i]
		f.y += f.speed
		f.x += s.rng.IntN(3) - 1
		if f.x < 0 {
			f.x = s.w - 1
		} else if f.x >= s.w {
			f.x = 0
		}
		if f.y >= s.h {
			*f = s.spawn(0)
		}
	}
}

// Frame renders the field as h lines of w cells.
func (s *Snow) Frame() string {
	grid := make([][]rune, s.h)
	for y := range grid {
		grid[y] = []rune(strings.Repeat(" ", s.w))
	}
	for _, f := range s.flakes {
		grid[f.y][f.x] = f.r
	}
	lines := make([]string, s.h)
	for y, row := range grid {
		lines[y] = string(row)
	}
	return strings.Join(lines, "\n")
}
