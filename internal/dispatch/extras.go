package dispatch

import (
	"context"
	"os"

	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/diffusion"
	"github.com/eltociear/NeuroSandboxWebUI/internal/stop"
	"github.com/eltociear/NeuroSandboxWebUI/pkg/types"
)

// extrasFactor fixes the standalone upscale pass at x2.
const extrasFactor = 2

// Extras upscales an existing image without a generation pass.
func (s *Service) Extras(ctx context.Context, req types.ExtrasRequest) (types.GenerateResponse, error) {
	tok, release, err := s.begin(ctx)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	defer release()

	if tok.Stopped() {
		return message(stop.StoppedMessage), nil
	}
	if !req.EnableUpscale {
		return message(msgEnableUpscale), nil
	}
	if req.Image == "" {
		return message(msgUploadInitImage), nil
	}

	up, err := s.loader.Upscaler(ctx, extrasFactor)
	if err != nil {
		return message(msgUpscaleLoadFailed), nil
	}
	src, err := os.ReadFile(req.Image)
	if err != nil {
		return types.GenerateResponse{}, err
	}

	img, err := s.images.Upscale(ctx, diffusion.UpscaleParams{
		ModelPath: up.Path,
		Config:    up.ConfigFile,
		Factor:    up.Factor,
		Prompt:    "",
		Image:     diffusion.EncodeMedia(src),
		Steps:     upscaleSteps,
		CFGScale:  upscaleCFG,
		Device:    s.deviceName(),
	})
	if err != nil {
		return types.GenerateResponse{}, err
	}
	if tok.Stopped() {
		return message(stop.StoppedMessage), nil
	}

	path, err := s.writeImage(img, "extras")
	if err != nil {
		return types.GenerateResponse{}, err
	}
	s.countSuccess("extras")
	return artifact(path, types.ModalityExtras), nil
}
