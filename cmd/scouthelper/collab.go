package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scout-helper/tracker/internal/collab"
	"github.com/scout-helper/tracker/internal/feed"
	"github.com/scout-helper/tracker/internal/geo"
	"github.com/scout-helper/tracker/internal/tracker/turtle"
	"github.com/scout-helper/tracker/pkg/core"
)

var (
	occupiedZone     uint
	occupiedInstance uint
	occupiedX        float64
	occupiedY        float64
	occupiedPos      string
	occupiedFree     bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show loaded reference data and the collaboration session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd, false, func(_ context.Context, rt *runtime) error {
			fmt.Fprintln(cmd.OutOrStdout(), rt.svc.StatusReport())
			return nil
		})
	},
}

var collabCmd = &cobra.Command{
	Use:   "collab",
	Short: "Manage the Turtle collaboration session",
	Long: `Joins, leaves and updates a Turtle collaboration session. The joined
session is kept in the session store and survives restarts.

Subcommands:
  start     - Create an empty Turtle train and join it
  join      - Join the session behind a collaborate link
  leave     - Stop pushing sightings
  status    - Show the joined session
  push      - Push sightings not sent yet
  occupied  - Mark a spawn point occupied or free
  feed      - Push sightings read as JSON lines from stdin`,
}

var collabStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Create an empty Turtle train and join it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
			link, err := rt.svc.StartSession(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Started session %s\n", link.Slug)
			fmt.Fprintf(out, "Readonly link: %s\n", link.ReadonlyURL)
			fmt.Fprintf(out, "Collaborate link: %s\n", link.CollaborateURL)
			return nil
		})
	},
}

var collabJoinCmd = &cobra.Command{
	Use:   "join <collaborate-link>",
	Short: "Join the session behind a collaborate link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
			session, err := rt.svc.JoinSession(ctx, args[0])
			if errors.Is(err, collab.ErrInvalidLink) {
				return fmt.Errorf("%q is not a Turtle collaborate link", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Joined session %s\n", session.Slug)
			return nil
		})
	},
}

var collabLeaveCmd = &cobra.Command{
	Use:   "leave",
	Short: "Stop pushing sightings to the joined session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
			if err := rt.svc.LeaveSession(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Left session")
			return nil
		})
	},
}

var collabStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the joined session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd, false, func(_ context.Context, rt *runtime) error {
			st := rt.svc.Status().Session
			out := cmd.OutOrStdout()
			if !st.Joined {
				fmt.Fprintln(out, "Not in a session")
				return nil
			}
			fmt.Fprintf(out, "Session %s, collaborating: %t, contributed: %d\n", st.Slug, st.Collaborating, st.Contributed)
			return nil
		})
	},
}

var collabPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push sightings not sent to the session yet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sightings, err := readSightings(sightingsPath, cmd.InOrStdin())
		if err != nil {
			return err
		}
		return withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
			status, err := rt.svc.PushSightings(ctx, sightings)
			return reportStatus(cmd, "Pushed sightings", status, err)
		})
	},
}

var collabOccupiedCmd = &cobra.Command{
	Use:   "occupied",
	Short: "Mark a spawn point occupied, or free with --free",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd, false, func(ctx context.Context, rt *runtime) error {
			pos := core.Position{X: occupiedX, Y: occupiedY}
			if occupiedPos != "" {
				var err error
				if pos, err = geo.PositionFromString(occupiedPos); err != nil {
					return fmt.Errorf("--pos %q: %w", occupiedPos, err)
				}
			}
			rt.player.Move(occupiedZone, occupiedInstance, pos)
			status, err := rt.svc.MarkOccupied(ctx, !occupiedFree)
			return reportStatus(cmd, "Updated spawn point", status, err)
		})
	},
}

var collabFeedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Push sightings read as JSON lines from stdin while collaborating",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(cmd, true, func(ctx context.Context, rt *runtime) error {
			if !rt.session.Collaborating() {
				return collab.ErrNotJoined
			}
			if rt.worker == nil {
				return errors.New("sighting feed is not available")
			}
			err := scanSightings(cmd.InOrStdin(), func(s core.Sighting) error {
				return rt.svc.ReportSighting(ctx, s)
			})
			if err != nil && !errors.Is(err, feed.ErrClosed) {
				return err
			}
			rt.feed.Close()
			select {
			case <-rt.worker.Done():
			case <-ctx.Done():
			}
			return nil
		})
	},
}

func reportStatus(cmd *cobra.Command, done string, status turtle.Status, err error) error {
	out := cmd.OutOrStdout()
	switch status {
	case turtle.Success:
		fmt.Fprintln(out, done)
		return nil
	case turtle.NoSupportedMobs:
		fmt.Fprintln(out, "Nothing new to send")
		return nil
	}
	if err == nil {
		err = fmt.Errorf("request failed: %s", status)
	}
	return err
}

func init() {
	collabPushCmd.Flags().StringVar(&sightingsPath, "sightings", "-", `sightings JSON file, "-" for stdin`)

	collabOccupiedCmd.Flags().UintVar(&occupiedZone, "zone", 0, "territory id")
	collabOccupiedCmd.Flags().UintVar(&occupiedInstance, "instance", 0, "instance, 0 when not instanced")
	collabOccupiedCmd.Flags().Float64Var(&occupiedX, "x", 0, "map x coordinate")
	collabOccupiedCmd.Flags().Float64Var(&occupiedY, "y", 0, "map y coordinate")
	collabOccupiedCmd.Flags().StringVar(&occupiedPos, "pos", "", `map position as "x,y", instead of --x and --y`)
	collabOccupiedCmd.Flags().BoolVar(&occupiedFree, "free", false, "mark the point free instead")
	_ = collabOccupiedCmd.MarkFlagRequired("zone")

	collabCmd.AddCommand(collabStartCmd, collabJoinCmd, collabLeaveCmd, collabStatusCmd,
		collabPushCmd, collabOccupiedCmd, collabFeedCmd)
}
