package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"segtools/pkg/contour"
	"segtools/pkg/raster"
	"segtools/pkg/visualization"
)

var (
	traceX, traceY int
	traceEight     bool
	tracePoints    bool
	traceOverlay   string
)

var traceCmd = &cobra.Command{
	Use:   "trace [label]",
	Short: "Trace the contour of a labeled region",
	Long: `Trace the boundary of the region containing (x, y), or of the first
region in raster order when no pixel is given. Vertices are printed in pixel
index space, where pixel centers have integer coordinates.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)

	traceCmd.Flags().IntVar(&traceX, "x", -1, "X coordinate of a pixel in the region")
	traceCmd.Flags().IntVar(&traceY, "y", -1, "Y coordinate of a pixel in the region")
	traceCmd.Flags().BoolVar(&traceEight, "eight", false, "Use 8-connectivity (default from config)")
	traceCmd.Flags().BoolVar(&tracePoints, "points", false, "Print every contour vertex")
	traceCmd.Flags().StringVar(&traceOverlay, "overlay", "", "Optional overlay image")
}

func runTrace(cmd *cobra.Command, args []string) error {
	label, err := visualization.LoadLabel(args[0])
	if err != nil {
		return err
	}

	start, ok := contour.FirstNonZero(label)
	if traceX >= 0 || traceY >= 0 {
		if !label.Contains(traceX, traceY) {
			return fmt.Errorf("pixel (%d,%d): %w", traceX, traceY, raster.ErrInvalidSeed)
		}
		start, ok = label.Offset(traceX, traceY), true
	}
	if !ok {
		return contour.ErrEmptyContour
	}

	conn := cfg.Connectivity()
	if cmd.Flags().Changed("eight") {
		conn = contour.FourConnected
		if traceEight {
			conn = contour.EightConnected
		}
	}

	ring, err := contour.Trace(label, start, conn)
	if err != nil {
		return err
	}
	log.Debug("trace", "contour traced", map[string]interface{}{"points": len(ring), "connectivity": conn.String()})

	fmt.Printf("Contour: %d points, area %.1f pixels (%s)\n", len(ring), ring.Area(), conn)
	if tracePoints {
		fmt.Println(formatPoints(ring.ToCenter()))
	}

	if traceOverlay != "" {
		return visualization.SavePNG(visualization.Overlay(label, ring), traceOverlay)
	}
	return nil
}

// parsePoints reads "x,y x,y ..." into center-space points.
func parsePoints(s string) ([]raster.Point, error) {
	var pts []raster.Point
	for _, field := range strings.Fields(s) {
		xs, ys, found := strings.Cut(field, ",")
		if !found {
			return nil, fmt.Errorf("invalid point %q, expected x,y", field)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point %q: %w", field, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid point %q: %w", field, err)
		}
		pts = append(pts, raster.Point{X: x, Y: y})
	}
	return pts, nil
}

func formatPoints(pts []raster.Point) string {
	fields := make([]string, len(pts))
	for i, p := range pts {
		fields[i] = strconv.FormatFloat(p.X, 'f', -1, 64) + "," + strconv.FormatFloat(p.Y, 'f', -1, 64)
	}
	return strings.Join(fields, " ")
}
