package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/scout-helper/tracker/internal/app"
	"github.com/scout-helper/tracker/internal/tracker"
	"github.com/scout-helper/tracker/pkg/core"
)

var linkCmd = &cobra.Command{
	Use:   "link <bear|siren|turtle|all>",
	Short: "Generate a tracker link for the sightings",
	Long: `Generates a link for the given tracker. "all" asks every tracker at once
and reports each result separately.

Example:
  scouthelper link siren --sightings train.json --world Odin`,
	Args: cobra.ExactArgs(1),
	RunE: runLink,
}

func init() {
	linkCmd.Flags().StringVar(&sightingsPath, "sightings", "-", `sightings JSON file, "-" for stdin`)
}

func runLink(cmd *cobra.Command, args []string) error {
	var names []tracker.Name
	if args[0] != "all" {
		name, err := tracker.ParseName(args[0])
		if err != nil {
			return err
		}
		names = append(names, name)
	}

	sightings, err := readSightings(sightingsPath, cmd.InOrStdin())
	if err != nil {
		return err
	}

	return withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
		out := cmd.OutOrStdout()
		if names == nil {
			var failed int
			for _, o := range rt.svc.GenerateAll(ctx, sightings) {
				if !printOutcome(out, rt.svc, o, sightings) {
					failed++
				}
			}
			if failed == len(tracker.Names()) {
				return errors.New("no tracker produced a link")
			}
			return nil
		}

		o := <-rt.svc.RequestLink(ctx, names[0], sightings)
		if !printOutcome(out, rt.svc, o, sightings) {
			return o.Err
		}
		return nil
	})
}

// printOutcome writes o and reports whether a link was produced.
func printOutcome(w io.Writer, svc *app.Service, o app.Outcome, sightings []core.Sighting) bool {
	title := o.Tracker.Title()
	if o.Err != nil {
		fmt.Fprintf(w, "[%s] %s\n", title, o.Err)
		return false
	}
	link := o.Link
	fmt.Fprintf(w, "[%s] %s\n", title, svc.CopyText(link, sightings))
	switch link.Tracker {
	case tracker.Bear:
		fmt.Fprintf(w, "[%s] Train admin password: %s\n", title, link.Password)
	case tracker.Turtle:
		fmt.Fprintf(w, "[%s] Collaborate link: %s\n", title, link.CollaborateURL)
	}
	for _, f := range link.Failures {
		fmt.Fprintf(w, "[%s] %s\n", title, f)
	}
	return true
}
