package models

import (
	"sort"

	"segtools/pkg/raster"
)

// Slice represents a single segmented slice with metadata
type Slice struct {
	// Label is the segmentation of the slice
	Label *raster.Label

	// Index is the position of this slice in the sequence
	Index int

	// Filename is the original filename of the slice, empty for generated slices
	Filename string

	// Position is the physical position of the slice along the stack axis
	Position float64

	// Interpolated marks slices generated from their neighbours
	Interpolated bool
}

// Stack is an ordered, possibly sparse, sequence of slices
type Stack struct {
	// Slices are kept sorted by Index
	Slices []Slice

	// Width and Height are the dimensions shared by all slices
	Width, Height int

	// SliceGap is the physical distance between consecutive indices in mm
	SliceGap float64
}

// Sort orders the slices by index and updates their positions.
func (s *Stack) Sort() {
	sort.Slice(s.Slices, func(i, j int) bool {
		return s.Slices[i].Index < s.Slices[j].Index
	})
	for i := range s.Slices {
		s.Slices[i].Position = float64(s.Slices[i].Index) * s.SliceGap
	}
}

// Gap is a run of missing indices between two present slices
type Gap struct {
	// Lower and Upper index into Stack.Slices
	Lower, Upper int

	// Missing lists the absent stack indices, ascending
	Missing []int
}

// Gaps returns every run of missing indices between consecutive slices. The
// stack must be sorted.
func (s *Stack) Gaps() []Gap {
	var gaps []Gap
	for i := 1; i < len(s.Slices); i++ {
		lo, hi := s.Slices[i-1].Index, s.Slices[i].Index
		if hi-lo < 2 {
			continue
		}
		g := Gap{Lower: i - 1, Upper: i}
		for idx := lo + 1; idx < hi; idx++ {
			g.Missing = append(g.Missing, idx)
		}
		gaps = append(gaps, g)
	}
	return gaps
}
