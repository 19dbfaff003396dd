package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"segtools/pkg/contour"
	"segtools/pkg/leakcut"
	"segtools/pkg/raster"
	"segtools/pkg/session"
	"segtools/pkg/visualization"
)

var (
	editOutput  string
	editOverlay string

	cutSeedX, cutSeedY int
	cutX, cutY         int

	correctLine string

	scriptPath string
)

var cutCmd = &cobra.Command{
	Use:   "cut [label]",
	Short: "Remove a leak from a region-grown segmentation",
	Long: `Walk back from the clicked pixel towards the seed along the growth
history, find the narrowest passage and erase the part of the region beyond it.
Nothing is changed when no confident cut exists.`,
	Args: cobra.ExactArgs(1),
	RunE: runCut,
}

var correctCmd = &cobra.Command{
	Use:   "correct [label]",
	Short: "Correct a segmentation with a freehand line",
	Long: `Apply a correction line given as "x,y x,y ..." in pixel index space.
Parts of the line crossing the segmentation cut away or add the smaller
adjacent area; a line entirely inside or outside erases or fills the polygon
it draws.`,
	Args: cobra.ExactArgs(1),
	RunE: runCorrect,
}

var editCmd = &cobra.Command{
	Use:   "edit [label]",
	Short: "Apply a YAML script of edits with undo",
	Args:  cobra.ExactArgs(1),
	RunE:  runEdit,
}

func init() {
	rootCmd.AddCommand(cutCmd, correctCmd, editCmd)

	for _, c := range []*cobra.Command{cutCmd, correctCmd, editCmd} {
		c.Flags().StringVarP(&editOutput, "output", "o", "", "Output label image (default: overwrite input)")
		c.Flags().StringVar(&editOverlay, "overlay", "", "Optional overlay image")
	}

	cutCmd.Flags().IntVar(&cutSeedX, "seed-x", 0, "Seed X coordinate of the original growing")
	cutCmd.Flags().IntVar(&cutSeedY, "seed-y", 0, "Seed Y coordinate of the original growing")
	cutCmd.Flags().IntVar(&cutX, "x", 0, "X coordinate of a pixel in the leaked part")
	cutCmd.Flags().IntVar(&cutY, "y", 0, "Y coordinate of a pixel in the leaked part")
	cutCmd.MarkFlagRequired("seed-x")
	cutCmd.MarkFlagRequired("seed-y")
	cutCmd.MarkFlagsRequiredTogether("x", "y")

	correctCmd.Flags().StringVar(&correctLine, "line", "", `Polyline "x,y x,y ..."`)
	correctCmd.MarkFlagRequired("line")

	editCmd.Flags().StringVar(&scriptPath, "script", "", "YAML edit script")
	editCmd.MarkFlagRequired("script")
}

// openSession loads a label and starts an editing session configured from
// the config file.
func openSession(path string) (*session.Session, error) {
	label, err := visualization.LoadLabel(path)
	if err != nil {
		return nil, err
	}
	return session.New(label, cfg.Undo.Levels,
		session.WithFillValue(cfg.Corrector.FillValue),
		session.WithLogger(log.Component("session")),
	), nil
}

// saveSession writes the edited label and the optional overlay.
func saveSession(s *session.Session, input string, extra ...contour.Contour) error {
	out := editOutput
	if out == "" {
		out = input
	}
	if err := visualization.SaveLabel(s.Label(), out); err != nil {
		return err
	}
	if editOverlay == "" {
		return nil
	}

	var rings []contour.Contour
	if ring, err := s.Contour(cfg.Connectivity()); err == nil {
		rings = append(rings, ring)
	}
	rings = append(rings, extra...)
	return visualization.SavePNG(visualization.Overlay(s.Label(), rings...), editOverlay)
}

func runCut(cmd *cobra.Command, args []string) error {
	s, err := openSession(args[0])
	if err != nil {
		return err
	}
	if err := s.SetSeed(cutSeedX, cutSeedY); err != nil {
		return err
	}

	res, n, err := s.RemoveLeak(cutX, cutY)
	if err != nil {
		return err
	}
	if !res.CutIt {
		log.Warning("cut", "no safe cut", map[string]interface{}{"reason": res.Reason, "x": cutX, "y": cutY})
		fmt.Printf("No safe cut: %s\n", res.Reason)
		return nil
	}

	fmt.Println(cutSummary(res, n))
	return saveSession(s, args[0], res.DeleteCurve)
}

// cutSummary describes a cut with its end points in pixel index space.
func cutSummary(res leakcut.CutResult, removed int) string {
	a, b := raster.CornerToCenter(res.CutPoints[0]), raster.CornerToCenter(res.CutPoints[1])
	return fmt.Sprintf("Cut between (%g,%g) and (%g,%g), %d pixels removed", a.X, a.Y, b.X, b.Y, removed)
}

func runCorrect(cmd *cobra.Command, args []string) error {
	line, err := parsePoints(correctLine)
	if err != nil {
		return err
	}
	s, err := openSession(args[0])
	if err != nil {
		return err
	}

	res, err := s.Correct(line)
	if err != nil {
		return err
	}
	modified := 0
	for _, seg := range res.Segments {
		if seg.Modified {
			modified++
		}
	}
	fmt.Printf("%d segments, %d modified, %d pixels changed\n", len(res.Segments), modified, res.PixelsChanged)
	return saveSession(s, args[0])
}

func runEdit(cmd *cobra.Command, args []string) error {
	sc, err := session.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	s, err := openSession(args[0])
	if err != nil {
		return err
	}

	results, err := s.Run(sc)
	for i, r := range results {
		fmt.Printf("%3d %-8s %6d  %s\n", i+1, r.Op, r.Changed, r.Message)
	}
	if err != nil {
		return err
	}
	return saveSession(s, args[0])
}
