// Command scouthelper generates hunt train links for Bear, Siren and Turtle
// and manages Turtle collaboration sessions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configDir     string
	worldName     string
	sightingsPath string
)

var rootCmd = &cobra.Command{
	Use:   "scouthelper",
	Short: "Generate hunt train links for Bear, Siren and Turtle",
	Long: `scouthelper turns a list of hunt mark sightings into a link for one of the
hunt tracking websites, renders the text copied alongside it and keeps a
Turtle collaboration session up to date.

Sightings are read from a JSON array of objects with name, mobId,
territoryId, mapId, instance, position {x, y}, dead and lastSeenUtc.`,
	SilenceUsage: true,
	Version:      Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory containing scout_helper.cfg.json")
	rootCmd.PersistentFlags().StringVar(&worldName, "world", "", "world the train runs on")

	rootCmd.AddCommand(linkCmd, renderCmd, statusCmd, collabCmd)
}

// withRuntime builds the runtime for one command and tears it down after.
func withRuntime(cmd *cobra.Command, watch bool, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := newRuntime(ctx, runtimeOptions{ConfigDir: configDir, World: worldName, Watch: watch})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "shutdown:", err)
		}
	}()
	return fn(ctx, rt)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
