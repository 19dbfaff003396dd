package reconstruction

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"segtools/internal/models"
	"segtools/pkg/interpolation"
	"segtools/pkg/raster"
	"segtools/pkg/visualization"
)

// Metrics summarizes a filled stack.
type Metrics struct {
	// Slices is the number of slices in the output stack, Known of them were
	// read from disk and Filled generated by interpolation
	Slices int
	Known  int
	Filled int

	// Skipped counts missing indices that could not be interpolated
	Skipped int

	// MeanArea and StdDevArea describe the foreground pixel count per slice
	MeanArea   float64
	StdDevArea float64

	// MeanDice and MinDice describe the overlap (Dice coefficient) of
	// consecutive slices. A sudden jump in shape shows up as a low MinDice.
	MeanDice float64
	MinDice  float64

	// Volume is the segmented volume in mm³
	Volume float64
}

// Params holds the gap filling parameters.
type Params struct {
	// InputDir holds the segmented slices. The stack index of each file is
	// the last number in its name; missing numbers are the gaps to fill.
	InputDir string

	// OutputDir receives the complete stack as slice_NNN.png
	OutputDir string

	// NumCores specifies how many slices are interpolated in parallel.
	NumCores int

	// SliceGap is the physical distance between consecutive indices in mm.
	SliceGap float64

	// SaveIntermediaryResults writes reformatted views of the filled stack.
	SaveIntermediaryResults bool

	// IntermediaryDir is where the reformatted views go.
	IntermediaryDir string
}

// ProgressCallback is a function that reports progress during gap filling
type ProgressCallback func(completed, total int, message string)

// Reconstructor fills the gaps of a sparsely segmented slice stack with
// shape-based interpolation.
//
// The process consists of these steps:
// 1. Loading the labeled slices and ordering them by index
// 2. Interpolating every missing index from its two neighbours, in parallel
// 3. Saving the complete stack
// 4. Calculating consistency metrics
type Reconstructor struct {
	params *Params

	// stack holds the loaded and generated slices
	stack models.Stack

	metrics Metrics

	log              zerolog.Logger
	progressCallback ProgressCallback
}

// NewReconstructor creates a new reconstructor instance with the provided parameters.
func NewReconstructor(params *Params) *Reconstructor {
	return &Reconstructor{
		params: params,
		stack:  models.Stack{SliceGap: params.SliceGap},
		log:    zerolog.Nop(),
	}
}

// SetLogger sets the logger for pipeline messages.
func (r *Reconstructor) SetLogger(l zerolog.Logger) {
	r.log = l
}

// SetProgressCallback sets a function to report progress while slices are
// interpolated.
//
// Example:
//
//	r.SetProgressCallback(func(completed, total int, message string) {
//		if total > 0 {
//			fmt.Printf("\rProgress: %d/%d", completed, total)
//		}
//	})
func (r *Reconstructor) SetProgressCallback(callback ProgressCallback) {
	r.progressCallback = callback
}

// reportProgress calls the progress callback if set, otherwise logs at debug level
func (r *Reconstructor) reportProgress(completed, total int, message string) {
	if r.progressCallback != nil {
		r.progressCallback(completed, total, message)
		return
	}
	r.log.Debug().Int("completed", completed).Int("total", total).Msg(message)
}

// Process runs the complete gap filling pipeline
func (r *Reconstructor) Process() error {
	start := time.Now()

	if err := os.MkdirAll(r.params.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	r.log.Info().Str("dir", r.params.InputDir).Msg("loading slices")
	if err := r.loadSlices(); err != nil {
		return fmt.Errorf("failed to load slices: %w", err)
	}

	r.log.Info().Msg("interpolating missing slices")
	if err := r.fillGapsInParallel(); err != nil {
		return fmt.Errorf("failed to fill gaps: %w", err)
	}

	r.log.Info().Str("dir", r.params.OutputDir).Msg("saving slices")
	if err := r.saveSlices(); err != nil {
		return fmt.Errorf("failed to save slices: %w", err)
	}

	r.calculateMetrics()

	if r.params.SaveIntermediaryResults {
		if err := r.saveReformattedViews(); err != nil {
			r.log.Warn().Err(err).Msg("failed to save reformatted views")
		}
	}

	r.log.Info().
		Int("slices", r.metrics.Slices).
		Int("filled", r.metrics.Filled).
		Int("skipped", r.metrics.Skipped).
		Float64("meanDice", r.metrics.MeanDice).
		Dur("elapsed", time.Since(start)).
		Msg("gap filling complete")
	return nil
}

// isSliceFile reports whether a file name has one of the supported image
// extensions.
func isSliceFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		return true
	}
	return false
}

func (r *Reconstructor) loadSlices() error {
	entries, err := os.ReadDir(r.params.InputDir)
	if err != nil {
		return err
	}

	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() || !isSliceFile(entry.Name()) {
			continue
		}
		name := entry.Name()
		index, ok := extractNumber(name)
		if !ok {
			r.log.Warn().Str("file", name).Msg("no slice number in file name, skipping")
			continue
		}
		if other, dup := seen[index]; dup {
			return fmt.Errorf("slices %s and %s share index %d", other, name, index)
		}
		seen[index] = name

		label, err := visualization.LoadLabel(filepath.Join(r.params.InputDir, name))
		if err != nil {
			return fmt.Errorf("failed to load image %s: %w", name, err)
		}

		// All slices must have the dimensions of the first one
		if len(r.stack.Slices) == 0 {
			r.stack.Width, r.stack.Height = label.Width, label.Height
		} else if label.Width != r.stack.Width || label.Height != r.stack.Height {
			return fmt.Errorf("slice %s is %dx%d, expected %dx%d: %w",
				name, label.Width, label.Height, r.stack.Width, r.stack.Height, raster.ErrDimensionMismatch)
		}

		r.stack.Slices = append(r.stack.Slices, models.Slice{Label: label, Index: index, Filename: name})
	}

	if len(r.stack.Slices) == 0 {
		return fmt.Errorf("no slice images found in %s", r.params.InputDir)
	}
	r.stack.Sort()

	r.log.Info().
		Int("slices", len(r.stack.Slices)).
		Int("width", r.stack.Width).
		Int("height", r.stack.Height).
		Float64("sliceGap", r.params.SliceGap).
		Msg("slices loaded")
	return nil
}

// extractNumber returns the last run of digits in a file name
func extractNumber(filename string) (int, bool) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	end := -1
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] >= '0' && base[i] <= '9' {
			end = i + 1
			break
		}
	}
	if end < 0 {
		return 0, false
	}
	start := end - 1
	for start > 0 && base[start-1] >= '0' && base[start-1] <= '9' {
		start--
	}
	num, err := strconv.Atoi(base[start:end])
	if err != nil {
		return 0, false
	}
	return num, true
}

// fillGapsInParallel interpolates every missing index on NumCores workers.
func (r *Reconstructor) fillGapsInParallel() error {
	type task struct {
		lower, upper models.Slice
		index        int
	}
	type result struct {
		slice models.Slice
		err   error
	}

	var tasks []task
	for _, gap := range r.stack.Gaps() {
		for _, idx := range gap.Missing {
			tasks = append(tasks, task{
				lower: r.stack.Slices[gap.Lower],
				upper: r.stack.Slices[gap.Upper],
				index: idx,
			})
		}
	}

	r.metrics.Known = len(r.stack.Slices)
	if len(tasks) == 0 {
		r.reportProgress(0, 0, "no gaps to fill")
		return nil
	}

	numCores := r.params.NumCores
	if numCores < 1 {
		numCores = 1
	}
	r.reportProgress(0, len(tasks), fmt.Sprintf("Interpolating %d slices on %d cores", len(tasks), numCores))

	jobs := make(chan task)
	results := make(chan result)

	var wg sync.WaitGroup
	for w := 0; w < numCores; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				label, err := interpolation.Interpolate(t.lower.Label, t.lower.Index, t.upper.Label, t.upper.Index, t.index)
				results <- result{
					slice: models.Slice{Label: label, Index: t.index, Interpolated: true},
					err:   err,
				}
			}
		}()
	}

	go func() {
		for _, t := range tasks {
			jobs <- t
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.err != nil {
			// Missing slices stay unlabeled
			r.metrics.Skipped++
			r.log.Warn().Err(res.err).Int("index", res.slice.Index).Msg("slice not interpolated")
		} else {
			r.stack.Slices = append(r.stack.Slices, res.slice)
			r.metrics.Filled++
		}
		r.reportProgress(completed, len(tasks), "")
	}

	r.stack.Sort()
	return nil
}

func (r *Reconstructor) saveSlices() error {
	for _, s := range r.stack.Slices {
		filename := filepath.Join(r.params.OutputDir, fmt.Sprintf("slice_%03d.png", s.Index))
		if err := visualization.SaveLabel(s.Label, filename); err != nil {
			return err
		}
	}
	return nil
}

// denseSlices returns the stack as a slice per index from the first to the
// last one, nil where no label exists.
func (r *Reconstructor) denseSlices() []*raster.Label {
	if len(r.stack.Slices) == 0 {
		return nil
	}
	first := r.stack.Slices[0].Index
	last := r.stack.Slices[len(r.stack.Slices)-1].Index
	dense := make([]*raster.Label, last-first+1)
	for _, s := range r.stack.Slices {
		dense[s.Index-first] = s.Label
	}
	return dense
}

func (r *Reconstructor) saveReformattedViews() error {
	viewer, err := visualization.NewViewer(r.denseSlices(), r.params.SliceGap)
	if err != nil {
		return err
	}
	for _, axis := range []string{"x", "y"} {
		dir := filepath.Join(r.params.IntermediaryDir, "reformat_"+axis)
		if err := viewer.SaveSliceSequence(axis, dir); err != nil {
			return err
		}
	}
	return nil
}

// calculateMetrics measures the area per slice and the overlap between
// consecutive slices.
func (r *Reconstructor) calculateMetrics() {
	r.metrics.Slices = len(r.stack.Slices)
	if r.metrics.Slices == 0 {
		return
	}

	areas := make([]float64, len(r.stack.Slices))
	for i, s := range r.stack.Slices {
		areas[i] = float64(s.Label.CountNonZero())
	}
	r.metrics.MeanArea, r.metrics.StdDevArea = stat.MeanStdDev(areas, nil)

	var dices []float64
	for i := 1; i < len(r.stack.Slices); i++ {
		a, b := r.stack.Slices[i-1], r.stack.Slices[i]
		if b.Index-a.Index != 1 {
			continue
		}
		dices = append(dices, dice(a.Label, b.Label))
	}
	if len(dices) > 0 {
		r.metrics.MeanDice = stat.Mean(dices, nil)
		r.metrics.MinDice = floats.Min(dices)
	}

	if viewer, err := visualization.NewViewer(r.denseSlices(), r.params.SliceGap); err == nil {
		r.metrics.Volume = viewer.Volume()
	}
}

// dice returns 2|A∩B| / (|A|+|B|), 1 for two empty masks.
func dice(a, b *raster.Label) float64 {
	inter, total := 0, 0
	for i := range a.Pix {
		ina, inb := a.Pix[i] != 0, b.Pix[i] != 0
		if ina {
			total++
		}
		if inb {
			total++
		}
		if ina && inb {
			inter++
		}
	}
	if total == 0 {
		return 1
	}
	return 2 * float64(inter) / float64(total)
}

// GetMetrics returns the metrics of the last Process run.
func (r *Reconstructor) GetMetrics() Metrics {
	return r.metrics
}

// Slices returns the ordered stack after Process.
func (r *Reconstructor) Slices() []models.Slice {
	return r.stack.Slices
}
