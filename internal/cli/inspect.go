package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/neuroscope/go-neuroscope/pkg/config"
	"github.com/neuroscope/go-neuroscope/pkg/rtc"
	"github.com/neuroscope/go-neuroscope/pkg/scene"
	"github.com/neuroscope/go-neuroscope/pkg/swc"
)

func newInspectCmd() *cobra.Command {
	var tr config.Transform

	cmd := &cobra.Command{
		Use:   "inspect <file.swc>",
		Short: "Print a morphology summary and the scene built from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := swc.Load(args[0])
			if err != nil {
				return err
			}

			job := config.Job{Transform: tr}
			device := rtc.NewDevice(rtc.WithLogger(loggerFromContext(cmd.Context())))
			sc, err := scene.Build(device, model, job.RigidTransform())
			if err != nil {
				return err
			}

			writeSummary(cmd.OutOrStdout(), args[0], model.Summarize(), sc)
			return nil
		},
	}

	cmd.Flags().Var(vec3Value{&tr.Position}, "position", "morphology translation")
	cmd.Flags().Var(vec3Value{&tr.Rotation}, "rotation", "morphology rotation in radians")

	return cmd
}

func writeSummary(w io.Writer, path string, s swc.Summary, sc *scene.Scene) {
	fmt.Fprintf(w, "Morphology: %s\n", path)
	fmt.Fprintf(w, "  nodes:     %d\n", s.Nodes)
	fmt.Fprintf(w, "  roots:     %d\n", s.Roots)
	fmt.Fprintf(w, "  dangling:  %d\n", s.Dangling)
	if s.Nodes > 0 {
		fmt.Fprintf(w, "  bounds:    %v - %v\n", s.Bounds.Min, s.Bounds.Max)
	}

	types := make([]swc.Type, 0, len(s.Counts))
	for t := range s.Counts {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		fmt.Fprintf(w, "  %-20s %d\n", t.String()+":", s.Counts[t])
	}

	counts := sc.Counts()
	fmt.Fprintf(w, "Scene:\n")
	fmt.Fprintf(w, "  soma:      %s (%d nodes, %d segments)\n", sc.SomaShape(), counts.Somas, counts.SomaSegments)
	fmt.Fprintf(w, "  neurites:  %d segments\n", counts.Neurites)
	if counts.Somas+counts.Neurites > 0 {
		bounds := sc.Bounds()
		fmt.Fprintf(w, "  bounds:    %v - %v\n", bounds.Min, bounds.Max)
	}
}
