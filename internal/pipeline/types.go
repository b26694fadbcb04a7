// Package pipeline drives conversion from input files to exported or
// loaded shapes.
package pipeline

import (
	"time"

	"github.com/wegman-software/osmshapes-go/internal/flex"
	"github.com/wegman-software/osmshapes-go/internal/geom"
	"github.com/wegman-software/osmshapes-go/internal/shape"
	"github.com/wegman-software/osmshapes-go/internal/style"
)

// Output is the result of processing one element set
type Output struct {
	Result *shape.Result
	View   geom.View
	Styled style.Stats // features removed by the style
	Hooks  flex.Stats  // features removed or failed in Lua hooks
	Took   time.Duration
}

// FileStats holds statistics for one input file
type FileStats struct {
	Path      string
	Elements  int64
	BytesRead int64
	Markers   int
	Areas     int
	Paths     int
	Output    string // written file, empty when loading into the database
}

// RunStats holds combined statistics for a batch run
type RunStats struct {
	Files    []FileStats
	Elements int64
	Markers  int
	Areas    int
	Paths    int
	Duration time.Duration
}

func (s *RunStats) add(f FileStats) {
	s.Files = append(s.Files, f)
	s.Elements += f.Elements
	s.Markers += f.Markers
	s.Areas += f.Areas
	s.Paths += f.Paths
}
