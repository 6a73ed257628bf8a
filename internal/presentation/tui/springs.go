package tui

import "github.com/charmbracelet/harmonica"

// frameRate drives both the redraw ticker and the spring integration.
const frameRate = 30

// boundary animates where the source side of a channel ends, in beads.
type boundary struct {
	pos float64
	vel float64
}

type springField struct {
	spring harmonica.Spring
	bounds map[string]*boundary
}

func newSpringField() springField {
	return springField{
		spring: harmonica.NewSpring(harmonica.FPS(frameRate), 6.0, 0.8),
		bounds: make(map[string]*boundary),
	}
}

// step moves the boundary of a channel towards target and returns its new position.
// A channel seen for the first time starts at rest on its target.
func (s *springField) step(id string, target float64) float64 {
	b, ok := s.bounds[id]
	if !ok {
		b = &boundary{pos: target}
		s.bounds[id] = b
	}
	b.pos, b.vel = s.spring.Update(b.pos, b.vel, target)
	return b.pos
}

func (s *springField) position(id string) (float64, bool) {
	b, ok := s.bounds[id]
	if !ok {
		return 0, false
	}
	return b.pos, true
}

// prune forgets channels that are gone.
func (s *springField) prune(alive map[string]bool) {
	for id := range s.bounds {
		if !alive[id] {
			delete(s.bounds, id)
		}
	}
}
