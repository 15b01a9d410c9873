package dispatch

import (
	"context"
	"os"

	"github.com/eltociear/NeuroSandboxWebUI/internal/imaging"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/diffusion"
	"github.com/eltociear/NeuroSandboxWebUI/internal/stop"
	"github.com/eltociear/NeuroSandboxWebUI/pkg/types"
)

// videoSeed keeps image-to-video runs reproducible.
const videoSeed = 42

// Video animates an uploaded image with the fixed image-to-video model.
// The weights are fetched on first use.
func (s *Service) Video(ctx context.Context, req types.VideoRequest) (types.GenerateResponse, error) {
	tok, release, err := s.begin(ctx)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	defer release()

	if req.InitImage == "" {
		return message(msgUploadInitImage), nil
	}
	modelPath, err := s.loader.VideoModel(ctx)
	if err != nil {
		return types.GenerateResponse{}, err
	}

	img, err := imaging.Load(req.InitImage)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	resized := imaging.ResizeBilinear(img, imaging.VideoWidth, imaging.VideoHeight)
	png, err := imaging.EncodePNG(resized)
	if err != nil {
		return types.GenerateResponse{}, err
	}

	video, err := s.images.Video(ctx, diffusion.VideoParams{
		ModelPath:        modelPath,
		Image:            diffusion.EncodeMedia(png),
		MotionBucketID:   req.MotionBucketID,
		NoiseAugStrength: req.NoiseAugStrength,
		FPS:              req.FPS,
		DecodeChunkSize:  req.DecodeChunkSize,
		Seed:             videoSeed,
		Device:           s.deviceName(),
	})
	if err != nil {
		return types.GenerateResponse{}, err
	}
	if tok.Stopped() {
		return message(stop.StoppedMessage), nil
	}

	path, err := s.out.ArtifactPath(sdCategory, "video", "mp4")
	if err != nil {
		return types.GenerateResponse{}, err
	}
	if err := os.WriteFile(path, video, 0o644); err != nil {
		return types.GenerateResponse{}, err
	}
	s.countSuccess("video")
	return artifact(path, types.ModalityVideo), nil
}
