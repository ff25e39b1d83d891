package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scout-helper/tracker/internal/config"
	"github.com/scout-helper/tracker/internal/player"
	"github.com/scout-helper/tracker/internal/refdata"
	"github.com/scout-helper/tracker/internal/template"
	"github.com/scout-helper/tracker/pkg/core"
)

var (
	renderTemplate string
	renderLink     string
	renderTracker  string
	renderPatch    string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a copy template for a train",
	Long: `Renders a copy template. Variables: {#} {#max} {link} {patch}
{patch-emote} {tracker} {world}. Without --patch the highest patch is looked
up from the reference data.

Example:
  scouthelper render --template "{patch} {#}/{#max} {world}" --sightings train.json --world Odin`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderTemplate, "template", "", "template, defaults to copy.template")
	renderCmd.Flags().StringVar(&sightingsPath, "sightings", "-", `sightings JSON file, "-" for stdin`)
	renderCmd.Flags().StringVar(&renderLink, "link", "", "value of {link}")
	renderCmd.Flags().StringVar(&renderTracker, "tracker", "", "value of {tracker}")
	renderCmd.Flags().StringVar(&renderPatch, "patch", "", "highest patch of the train")
}

func runRender(cmd *cobra.Command, _ []string) error {
	sightings, err := readSightings(sightingsPath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	cfgErr := config.Load(configDir)

	tmpl := renderTemplate
	if tmpl == "" {
		if cfgErr != nil {
			return cfgErr
		}
		tmpl = config.GetCopyConfig().Template
	}

	var patch core.Patch
	if renderPatch != "" {
		if patch, err = core.ParsePatch(renderPatch); err != nil {
			return err
		}
	} else if patch, err = highestPatch(sightings); err != nil {
		return err
	}

	world := worldName
	if world == "" {
		world = player.NoWorld
	}
	fmt.Fprintln(cmd.OutOrStdout(), template.Format(tmpl, template.VarsFor(template.Train{
		Count:        len(sightings),
		HighestPatch: patch,
		Link:         renderLink,
		Tracker:      renderTracker,
		World:        world,
	})))
	return nil
}

// highestPatch finds the newest patch among the sightings using the Siren
// mob table, which lists every supported mark.
func highestPatch(sightings []core.Sighting) (core.Patch, error) {
	dir := config.GetDataConfig().Dir
	resolver, err := refdata.LoadStaticResolver(filepath.Join(dir, refdata.NamesFile))
	if err != nil {
		return 0, err
	}
	res, err := refdata.LoadSiren(filepath.Join(dir, refdata.SirenFile), resolver, nil)
	if err != nil {
		return 0, err
	}
	var patches []core.Patch
	for _, s := range sightings {
		if p, ok := res.Index.PatchOf(s.MobID); ok {
			patches = append(patches, p)
		}
	}
	patch, ok := core.HighestPatch(patches)
	if !ok {
		return 0, fmt.Errorf("none of the %d sightings is a known mark, pass --patch", len(sightings))
	}
	return patch, nil
}
