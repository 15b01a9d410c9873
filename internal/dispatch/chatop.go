package dispatch

import (
	"context"
	"os"
	"strings"

	"github.com/eltociear/NeuroSandboxWebUI/internal/chat"
	"github.com/eltociear/NeuroSandboxWebUI/internal/loader"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/text"
	"github.com/eltociear/NeuroSandboxWebUI/internal/runtime/voice"
	"github.com/eltociear/NeuroSandboxWebUI/internal/stop"
	"github.com/eltociear/NeuroSandboxWebUI/pkg/types"
)

// XTTS decoding penalties are fixed rather than user tunable.
const (
	ttsRepetitionPenalty = 2.0
	ttsLengthPenalty     = 1.0
)

// Chat runs one LLM exchange, optionally transcribing spoken input first
// and speaking the reply afterwards.
func (s *Service) Chat(ctx context.Context, req types.ChatRequest) (types.ChatResponse, error) {
	tok, release, err := s.begin(ctx)
	if err != nil {
		return types.ChatResponse{}, err
	}
	defer release()

	prompt := req.Text
	if req.InputAudio != "" {
		whisperPath, err := s.loader.WhisperModel(ctx)
		if err != nil {
			return types.ChatResponse{}, err
		}
		prompt, err = s.stt.Transcribe(ctx, req.InputAudio, whisperPath, s.deviceName())
		if err != nil {
			return types.ChatResponse{}, err
		}
	}
	if strings.TrimSpace(prompt) == "" {
		s.session.AppendNotice(msgEnterRequest, "")
		return s.chatResult("", "", ""), nil
	}
	if req.ModelName == "" {
		s.session.AppendNotice("", msgSelectLLMModel)
		return s.chatResult("", "", ""), nil
	}
	if req.EnableTTS && (req.SpeakerWav == "" || req.Language == "") {
		s.session.AppendNotice("", msgSelectVoiceLanguage)
		return s.chatResult("", "", ""), nil
	}

	tm, err := s.loader.TextModel(req.ModelName, req.ModelType)
	if err != nil {
		if loader.IsIncompatible(err) || loader.IsNotFound(err) {
			s.session.AppendNotice("", err.Error())
			return s.chatResult("", "", err.Error()), nil
		}
		return types.ChatResponse{}, err
	}

	adapter := s.server
	params := text.InferParams{
		Temperature:   float32(req.Temperature),
		TopP:          float32(req.TopP),
		TopK:          req.TopK,
		RepeatPenalty: chat.RepeatPenalty,
		CtxSize:       s.cfg.LlamaCtx,
		GPULayers:     s.loader.Device().GPULayers(),
		Threads:       s.cfg.LlamaThreads,
	}
	var framed string
	switch tm.Type {
	case types.LLMTypeTransformers:
		framed = chat.TransformersPrompt(prompt)
		params.MaxTokens = req.MaxLength
	case types.LLMTypeLlama:
		adapter = s.llama
		framed = chat.LlamaPrompt(prompt)
		params.MaxTokens = req.MaxTokens
		params.Stop = chat.LlamaStopWords
	}

	sess, err := adapter.Start(tm.Path, params)
	if err != nil {
		return types.ChatResponse{}, err
	}
	defer sess.Close()

	if tok.Stopped() {
		s.session.AppendNotice(prompt, stop.StoppedMessage)
		return s.chatResult("", "", stop.StoppedMessage), nil
	}
	res, err := sess.Generate(ctx, framed, nil)
	if err != nil {
		return types.ChatResponse{}, err
	}
	if tok.Stopped() {
		s.session.AppendNotice(prompt, stop.StoppedMessage)
		return s.chatResult("", "", stop.StoppedMessage), nil
	}
	answer := res.Content

	if err := s.session.AppendExchange(prompt, answer); err != nil {
		return types.ChatResponse{}, err
	}
	avatar := s.loader.AvatarPath(req.AvatarName)

	var audioPath string
	if req.EnableTTS && answer != "" {
		if tok.Stopped() {
			return s.chatResult("", avatar, stop.StoppedMessage), nil
		}
		audioPath, err = s.speakReply(ctx, answer, req)
		if err != nil {
			return types.ChatResponse{}, err
		}
	}

	s.countSuccess("chat")
	return s.chatResult(audioPath, avatar, ""), nil
}

func (s *Service) speakReply(ctx context.Context, answer string, req types.ChatRequest) (string, error) {
	voicePath, err := s.loader.VoicePath(req.SpeakerWav)
	if err != nil {
		return "", err
	}
	modelDir, err := s.loader.XTTSModel(ctx)
	if err != nil {
		return "", err
	}
	wav, err := s.tts.Synthesize(ctx, voice.TTSParams{
		Text:              answer,
		ModelDir:          modelDir,
		SpeakerWav:        voicePath,
		Language:          req.Language,
		Temperature:       req.TTSTemperature,
		TopP:              req.TTSTopP,
		TopK:              req.TTSTopK,
		Speed:             req.TTSSpeed,
		RepetitionPenalty: ttsRepetitionPenalty,
		LengthPenalty:     ttsLengthPenalty,
		Device:            s.deviceName(),
	})
	if err != nil {
		return "", err
	}
	audioPath, err := s.session.AudioPath()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(audioPath, wav, 0o644); err != nil {
		return "", err
	}
	return audioPath, nil
}

func (s *Service) chatResult(audioPath, avatarPath, message string) types.ChatResponse {
	resp := types.ChatResponse{
		History:    s.session.History(),
		AudioPath:  audioPath,
		AvatarPath: avatarPath,
		Message:    message,
	}
	// The directory only exists once an exchange has been written.
	s.session.WithDir(func(dir string) { resp.ChatDir = dir })
	return resp
}

func (s *Service) deviceName() string {
	return string(s.loader.Device().Kind)
}
