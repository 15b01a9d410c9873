package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/eltociear/NeuroSandboxWebUI/internal/registry"
)

// fetchConcurrency bounds parallel git clones so a cold install does not
// saturate the link.
const fetchConcurrency = 3

func buildFetchCmd(cfg *Config) *cobra.Command {
	fetchCmd := &cobra.Command{Use: "fetch", Short: "Prefetch model weights from the hub", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("fetch requires a subcommand: all|whisper|xtts|multiband|upscalers|video|audiocraft")
	}}

	fetchAll := &cobra.Command{Use: "all", Short: "Fetch every fixed model (whisper, XTTS, multiband, upscalers, video)", Example: "  sandboxctl fetch all", RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		return a.fetchAll(cmd.Context())
	}}
	fetchWhisper := &cobra.Command{Use: "whisper", Short: "Fetch the speech-to-text checkpoint", RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cfg, cmd.Context(), func(a *app, ctx context.Context) (string, error) { return a.hub.EnsureWhisper(ctx) })
	}}
	fetchXTTS := &cobra.Command{Use: "xtts", Short: "Fetch the voice-clone model", RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cfg, cmd.Context(), func(a *app, ctx context.Context) (string, error) { return a.hub.EnsureXTTS(ctx) })
	}}
	fetchMultiband := &cobra.Command{Use: "multiband", Short: "Fetch the multiband-diffusion refiner", RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cfg, cmd.Context(), func(a *app, ctx context.Context) (string, error) { return a.hub.EnsureMultiband(ctx) })
	}}
	fetchUpscalers := &cobra.Command{Use: "upscalers", Short: "Fetch the x2 and x4 upscalers", RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		return a.fetchUpscalers(cmd.Context())
	}}
	fetchVideo := &cobra.Command{Use: "video", Short: "Fetch the image-to-video model", RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cfg, cmd.Context(), func(a *app, ctx context.Context) (string, error) { return a.hub.EnsureVideoModel(ctx) })
	}}
	fetchAudiocraft := &cobra.Command{Use: "audiocraft [model...]", Short: "Fetch audiocraft models (all of them when none are named)", Example: "  sandboxctl fetch audiocraft musicgen-stereo-medium", RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		names := args
		if len(names) == 0 {
			names = registry.AudiocraftModels
		}
		return a.fetchAudiocraft(cmd.Context(), names)
	}}

	fetchCmd.AddCommand(fetchAll, fetchWhisper, fetchXTTS, fetchMultiband, fetchUpscalers, fetchVideo, fetchAudiocraft)
	return fetchCmd
}

func runFetch(cfg *Config, ctx context.Context, fn func(*app, context.Context) (string, error)) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	path, err := fn(a, ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, path)
	return nil
}

func (a *app) fetchAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	g.Go(func() error { return a.report("whisper", func() (string, error) { return a.hub.EnsureWhisper(ctx) }) })
	g.Go(func() error { return a.report("xtts", func() (string, error) { return a.hub.EnsureXTTS(ctx) }) })
	g.Go(func() error {
		return a.report("multiband", func() (string, error) { return a.hub.EnsureMultiband(ctx) })
	})
	g.Go(func() error { return a.report("video", func() (string, error) { return a.hub.EnsureVideoModel(ctx) }) })
	for _, factor := range []int{2, 4} {
		factor := factor
		g.Go(func() error {
			return a.report(fmt.Sprintf("upscaler-x%d", factor), func() (string, error) {
				up, err := a.hub.EnsureUpscaler(ctx, factor)
				return up.Path, err
			})
		})
	}
	return g.Wait()
}

func (a *app) fetchUpscalers(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, factor := range []int{2, 4} {
		factor := factor
		g.Go(func() error {
			return a.report(fmt.Sprintf("upscaler-x%d", factor), func() (string, error) {
				up, err := a.hub.EnsureUpscaler(ctx, factor)
				return up.Path, err
			})
		})
	}
	return g.Wait()
}

func (a *app) fetchAudiocraft(ctx context.Context, names []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for _, name := range names {
		name := name
		g.Go(func() error {
			return a.report(name, func() (string, error) { return a.hub.EnsureAudiocraft(ctx, name) })
		})
	}
	return g.Wait()
}

func (a *app) report(label string, fn func() (string, error)) error {
	path, err := fn()
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	a.log.Info().Str("model", label).Str("path", path).Msg("fetched")
	fmt.Fprintf(a.out, "%s\t%s\n", label, path)
	return nil
}
