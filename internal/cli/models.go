package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eltociear/NeuroSandboxWebUI/pkg/types"
)

func buildModelsCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{Use: "models", Short: "List the selectable models found under the inputs directory", Example: "  sandboxctl models", RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		a.printModels(a.reg.Snapshot())
		return nil
	}}
}

func (a *app) printModels(snap types.ModelsResponse) {
	section := func(title string, models []types.Model) {
		fmt.Fprintf(a.out, "%s (%d)\n", title, len(models))
		for _, m := range models {
			fmt.Fprintf(a.out, "  %s\n", m.Name)
		}
	}
	names := func(title string, items []string) {
		fmt.Fprintf(a.out, "%s (%d)\n", title, len(items))
		for _, n := range items {
			fmt.Fprintf(a.out, "  %s\n", n)
		}
	}
	section("LLM models", snap.LLMModels)
	section("StableDiffusion models", snap.SDModels)
	section("VAE models", snap.VAEModels)
	section("LORA models", snap.LoraModels)
	section("Inpaint models", snap.InpaintModels)
	names("AudioCraft models", snap.AudiocraftModels)
	names("Avatars", snap.Avatars)
	names("Voices", snap.Voices)
}
