package dispatch

import (
	"context"
	"fmt"
	"os"

	"github.com/eltociear/NeuroSandboxWebUI/internal/imaging"
	"github.com/eltociear/NeuroSandboxWebUI/internal/loader"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/diffusion"
	"github.com/eltociear/NeuroSandboxWebUI/internal/stop"
	"github.com/eltociear/NeuroSandboxWebUI/pkg/types"
)

const sdCategory = "StableDiffusion"

// The secondary upscale pass always runs with these settings.
const (
	upscaleSteps = 50
	upscaleCFG   = 8
)

func message(msg string) types.GenerateResponse {
	return types.GenerateResponse{Message: msg}
}

func artifact(path string, modality types.Modality) types.GenerateResponse {
	return types.GenerateResponse{Artifact: &types.Artifact{Path: path, Modality: modality}}
}

// Txt2Img renders an image from a prompt, optionally upscaling the result.
func (s *Service) Txt2Img(ctx context.Context, req types.Txt2ImgRequest) (types.GenerateResponse, error) {
	tok, release, err := s.begin(ctx)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	defer release()

	if req.ModelName == "" {
		return message(msgSelectSDModel), nil
	}
	params, resp, err := s.imageParams(req.ModelName, req.ModelType, req.VAEModelName, false)
	if err != nil || resp.Message != "" {
		return resp, err
	}
	params.Prompt = req.Prompt
	params.NegativePrompt = req.NegativePrompt
	params.LoraPaths = s.loader.LoraPaths(req.LoraModelNames)
	params.Sampler = req.Sampler
	params.Steps = req.Steps
	params.CFGScale = req.CFG
	params.Width = req.Width
	params.Height = req.Height
	params.ClipSkip = req.ClipSkip

	img, err := s.images.Txt2Img(ctx, params)
	if err != nil {
		if diffusion.IsIncompatible(err) {
			return message(msgIncompatibleType), nil
		}
		return types.GenerateResponse{}, err
	}
	if tok.Stopped() {
		return message(stop.StoppedMessage), nil
	}

	if req.EnableUpscale {
		factor := 2
		if req.UpscaleFactor != "x2" {
			factor = 4
		}
		up, err := s.loader.Upscaler(ctx, factor)
		if err != nil {
			return message(msgUpscaleLoadFailed), nil
		}
		img, err = s.images.Upscale(ctx, diffusion.UpscaleParams{
			ModelPath: up.Path,
			Config:    up.ConfigFile,
			Factor:    up.Factor,
			Prompt:    req.Prompt,
			Image:     diffusion.EncodeMedia(img),
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
	}

	path, err := s.writeImage(img, "txt2img")
	if err != nil {
		return types.GenerateResponse{}, err
	}
	s.countSuccess("txt2img")
	return artifact(path, types.ModalityTxt2Img), nil
}

// Img2Img redraws an uploaded image under a prompt. Engine panics are
// reported as a result message rather than a server failure.
func (s *Service) Img2Img(ctx context.Context, req types.Img2ImgRequest) (resp types.GenerateResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = message(fmt.Sprint(r))
			err = nil
		}
	}()

	tok, release, err := s.begin(ctx)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	defer release()

	if req.ModelName == "" {
		return message(msgSelectSDModel), nil
	}
	if req.InitImage == "" {
		return message(msgUploadInitImage), nil
	}
	params, resp, err := s.imageParams(req.ModelName, req.ModelType, req.VAEModelName, false)
	if err != nil || resp.Message != "" {
		return resp, err
	}
	init, err := os.ReadFile(req.InitImage)
	if err != nil {
		return message(err.Error()), nil
	}
	params.Prompt = req.Prompt
	params.NegativePrompt = req.NegativePrompt
	params.InitImage = diffusion.EncodeMedia(init)
	params.Strength = req.Strength
	params.Sampler = req.Sampler
	params.Steps = req.Steps
	params.CFGScale = req.CFG
	params.ClipSkip = req.ClipSkip

	img, err := s.images.Img2Img(ctx, params)
	if err != nil {
		if diffusion.IsIncompatible(err) {
			return message(msgIncompatibleType), nil
		}
		return message(err.Error()), nil
	}
	if tok.Stopped() {
		return message(stop.StoppedMessage), nil
	}

	path, err := s.writeImage(img, "img2img")
	if err != nil {
		return types.GenerateResponse{}, err
	}
	s.countSuccess("img2img")
	return artifact(path, types.ModalityImg2Img), nil
}

// Inpaint redraws the masked region of an uploaded image. The mask is
// binarized and resized to the source before the engine sees it.
func (s *Service) Inpaint(ctx context.Context, req types.InpaintRequest) (types.GenerateResponse, error) {
	tok, release, err := s.begin(ctx)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	defer release()

	if req.ModelName == "" {
		return message(msgSelectSDModel), nil
	}
	if req.InitImage == "" || req.MaskImage == "" {
		return message(msgUploadInitAndMask), nil
	}
	params, resp, err := s.imageParams(req.ModelName, req.ModelType, req.VAEModelName, true)
	if err != nil || resp.Message != "" {
		return resp, err
	}

	init, err := imaging.Load(req.InitImage)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	mask, err := imaging.Load(req.MaskImage)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	normalized := imaging.NormalizeMask(mask, init.Bounds())

	initPNG, err := imaging.EncodePNG(init)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	maskPNG, err := imaging.EncodePNG(normalized)
	if err != nil {
		return types.GenerateResponse{}, err
	}

	params.Prompt = req.Prompt
	params.NegativePrompt = req.NegativePrompt
	params.InitImage = diffusion.EncodeMedia(initPNG)
	params.MaskImage = diffusion.EncodeMedia(maskPNG)
	params.Sampler = req.Sampler
	params.Steps = req.Steps
	params.CFGScale = req.CFG
	params.Width = req.Width
	params.Height = req.Height

	img, err := s.images.Inpaint(ctx, params)
	if err != nil {
		if diffusion.IsIncompatible(err) {
			return message(msgIncompatibleType), nil
		}
		return types.GenerateResponse{}, err
	}
	if tok.Stopped() {
		return message(stop.StoppedMessage), nil
	}

	path, err := s.writeImage(img, "inpaint")
	if err != nil {
		return types.GenerateResponse{}, err
	}
	s.countSuccess("inpaint")
	return artifact(path, types.ModalityInpaint), nil
}

// imageParams resolves the checkpoint and pipeline preset shared by the
// three image dispatchers. A non-empty resp.Message is a final result.
func (s *Service) imageParams(modelName string, modelType types.SDModelType, vaeName string, inpaint bool) (diffusion.GenerateParams, types.GenerateResponse, error) {
	resolve := s.loader.SDModelPath
	if inpaint {
		resolve = s.loader.InpaintModelPath
	}
	modelPath, err := resolve(modelName)
	if err != nil {
		if loader.IsNotFound(err) {
			return diffusion.GenerateParams{}, message(err.Error()), nil
		}
		return diffusion.GenerateParams{}, types.GenerateResponse{}, err
	}
	preset, ok := diffusion.PresetFor(modelType)
	if !ok {
		return diffusion.GenerateParams{}, message(msgInvalidSDType), nil
	}
	return diffusion.GenerateParams{
		ModelPath:            modelPath,
		Config:               preset.Config,
		XL:                   preset.XL,
		VAEPath:              s.loader.VAEPath(vaeName),
		Device:               s.deviceName(),
		DisableSafetyChecker: s.cfg.SafetyCheckerDisabled(),
	}, types.GenerateResponse{}, nil
}

func (s *Service) writeImage(png []byte, prefix string) (string, error) {
	path, err := s.out.ArtifactPath(sdCategory, prefix, "png")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
