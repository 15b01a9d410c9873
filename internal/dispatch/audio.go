package dispatch

import (
	"context"
	"os"
	"strings"

	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/audiocraft"
	"github.com/eltociear/NeuroSandboxWebUI/internal/stop"
	"github.com/eltociear/NeuroSandboxWebUI/pkg/types"
)

const audioCategory = "AudioCraft"

// Audio generates music or sound from a prompt with an audiocraft model,
// optionally refining the result through multiband diffusion.
func (s *Service) Audio(ctx context.Context, req types.AudioRequest) (types.GenerateResponse, error) {
	tok, release, err := s.begin(ctx)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	defer release()

	if req.ModelName == "" {
		return message(msgSelectAudioModel), nil
	}
	if req.EnableMultiband && (req.ModelType == types.AudioTypeAudiogen || req.ModelType == types.AudioTypeMagnet) {
		return message(msgMultibandLimited), nil
	}
	if req.ModelType == types.AudioTypeMagnet {
		return message(msgMagnetUnsupported), nil
	}
	if req.ModelType != types.AudioTypeMusicgen && req.ModelType != types.AudioTypeAudiogen {
		return message(msgInvalidAudioType), nil
	}

	modelPath, err := s.loader.AudiocraftModel(ctx, req.ModelName)
	if err != nil {
		return types.GenerateResponse{}, err
	}

	params := audiocraft.GenerateParams{
		ModelPath:   modelPath,
		ModelType:   req.ModelType,
		Prompt:      req.Prompt,
		Duration:    req.Duration,
		TopK:        req.TopK,
		TopP:        req.TopP,
		Temperature: req.Temperature,
		CFGCoef:     req.CFGCoef,
		KeepTokens:  req.EnableMultiband,
		Device:      s.deviceName(),
	}
	// Melody conditioning only applies to musicgen.
	if req.InputAudio != "" && req.ModelType == types.AudioTypeMusicgen {
		melody, err := os.ReadFile(req.InputAudio)
		if err != nil {
			return types.GenerateResponse{}, err
		}
		params.Melody = audiocraft.EncodeMedia(melody)
	}

	res, err := s.audio.Generate(ctx, params)
	if err != nil {
		return types.GenerateResponse{}, err
	}
	if tok.Stopped() {
		return message(stop.StoppedMessage), nil
	}

	var extra []types.Artifact
	if req.EnableMultiband {
		if tok.Stopped() {
			return message(stop.StoppedMessage), nil
		}
		mbPath, err := s.loader.MultibandModel(ctx)
		if err != nil {
			return types.GenerateResponse{}, err
		}
		refined, err := s.audio.DecodeTokens(ctx, audiocraft.DecodeParams{
			TokensRef: res.TokensRef,
			ModelPath: mbPath,
			Device:    s.deviceName(),
		})
		if err != nil {
			return types.GenerateResponse{}, err
		}
		dir, err := s.out.DayDir(audioCategory)
		if err != nil {
			return types.GenerateResponse{}, err
		}
		diffPath := strings.TrimSuffix(s.out.FilePath(dir, "audio", "wav"), ".wav") + "_diffusion.wav"
		if err := os.WriteFile(diffPath, refined, 0o644); err != nil {
			return types.GenerateResponse{}, err
		}
		extra = append(extra, types.Artifact{Path: diffPath, Modality: types.ModalityAudio})
	}

	path, err := s.out.ArtifactPath(audioCategory, "audio", "wav")
	if err != nil {
		return types.GenerateResponse{}, err
	}
	if err := os.WriteFile(path, res.Audio, 0o644); err != nil {
		return types.GenerateResponse{}, err
	}
	s.countSuccess("audio")
	resp := artifact(path, types.ModalityAudio)
	resp.Extra = extra
	return resp, nil
}
