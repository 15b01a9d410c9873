package types

// ChatRequest is the payload for POST /api/llm/chat.
type ChatRequest struct {
	// Text request. Optional when InputAudio is provided.
	// example: Write a haiku about the ocean.
	Text string `json:"text,omitempty" example:"Write a haiku about the ocean."`
	// Path to a recorded spoken request; transcribed before generation.
	InputAudio string `json:"input_audio,omitempty"`
	// LLM model name from inputs/text/llm_models.
	ModelName string `json:"model_name"`
	// Loader type for the model.
	// example: transformers
	ModelType LLMModelType `json:"model_type" example:"transformers"`
	// Max length for transformers-type models.
	MaxLength int `json:"max_length,omitempty" example:"512"`
	// Max tokens for llama-type models.
	MaxTokens   int     `json:"max_tokens,omitempty" example:"512"`
	Temperature float64 `json:"temperature,omitempty" example:"0.7"`
	TopP        float64 `json:"top_p,omitempty" example:"0.9"`
	TopK        int     `json:"top_k,omitempty" example:"20"`
	// Avatar image name from inputs/image/avatars, echoed back for display.
	AvatarName string `json:"avatar_name,omitempty"`
	// Synthesize a spoken reply with the voice-clone model.
	EnableTTS bool `json:"enable_tts,omitempty"`
	// Reference voice sample from inputs/audio/voices.
	SpeakerWav string `json:"speaker_wav,omitempty"`
	// Target language for TTS.
	// example: en
	Language       string  `json:"language,omitempty" example:"en"`
	TTSTemperature float64 `json:"tts_temperature,omitempty" example:"1.0"`
	TTSTopP        float64 `json:"tts_top_p,omitempty" example:"0.9"`
	TTSTopK        int     `json:"tts_top_k,omitempty" example:"20"`
	TTSSpeed       float64 `json:"tts_speed,omitempty" example:"1.0"`
}

// ChatResponse mirrors the LLM tab outputs: the running history, an optional
// spoken reply, and the selected avatar.
type ChatResponse struct {
	History    []ChatTurn `json:"history"`
	AudioPath  string     `json:"audio_path,omitempty"`
	AvatarPath string     `json:"avatar_path,omitempty"`
	ChatDir    string     `json:"chat_dir,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// Txt2ImgRequest is the payload for POST /api/sd/txt2img.
type Txt2ImgRequest struct {
	Prompt         string      `json:"prompt"`
	NegativePrompt string      `json:"negative_prompt,omitempty"`
	ModelName      string      `json:"model_name"`
	VAEModelName   string      `json:"vae_model_name,omitempty"`
	LoraModelNames []string    `json:"lora_model_names,omitempty"`
	ModelType      SDModelType `json:"model_type" example:"SD"`
	Sampler        string      `json:"sampler,omitempty" example:"euler_ancestral"`
	Steps          int         `json:"steps,omitempty" example:"30"`
	CFG            float64     `json:"cfg,omitempty" example:"8"`
	Width          int         `json:"width,omitempty" example:"512"`
	Height         int         `json:"height,omitempty" example:"512"`
	ClipSkip       int         `json:"clip_skip,omitempty" example:"1"`
	EnableUpscale  bool        `json:"enable_upscale,omitempty"`
	// Upscale size, "x2" or "x4".
	UpscaleFactor string `json:"upscale_factor,omitempty" example:"x2"`
}

// Img2ImgRequest is the payload for POST /api/sd/img2img.
type Img2ImgRequest struct {
	Prompt         string      `json:"prompt"`
	NegativePrompt string      `json:"negative_prompt,omitempty"`
	InitImage      string      `json:"init_image"`
	Strength       float64     `json:"strength,omitempty" example:"0.5"`
	ModelName      string      `json:"model_name"`
	VAEModelName   string      `json:"vae_model_name,omitempty"`
	ModelType      SDModelType `json:"model_type" example:"SD"`
	Sampler        string      `json:"sampler,omitempty"`
	Steps          int         `json:"steps,omitempty" example:"30"`
	CFG            float64     `json:"cfg,omitempty" example:"8"`
	ClipSkip       int         `json:"clip_skip,omitempty" example:"1"`
}

// InpaintRequest is the payload for POST /api/sd/inpaint.
type InpaintRequest struct {
	Prompt         string      `json:"prompt"`
	NegativePrompt string      `json:"negative_prompt,omitempty"`
	InitImage      string      `json:"init_image"`
	MaskImage      string      `json:"mask_image"`
	ModelName      string      `json:"model_name"`
	VAEModelName   string      `json:"vae_model_name,omitempty"`
	ModelType      SDModelType `json:"model_type" example:"SD"`
	Sampler        string      `json:"sampler,omitempty"`
	Steps          int         `json:"steps,omitempty" example:"30"`
	CFG            float64     `json:"cfg,omitempty" example:"8"`
	Width          int         `json:"width,omitempty" example:"512"`
	Height         int         `json:"height,omitempty" example:"512"`
}

// VideoRequest is the payload for POST /api/sd/video.
type VideoRequest struct {
	InitImage        string  `json:"init_image"`
	MotionBucketID   int     `json:"motion_bucket_id,omitempty" example:"180"`
	NoiseAugStrength float64 `json:"noise_aug_strength,omitempty" example:"0.1"`
	FPS              int     `json:"fps,omitempty" example:"10"`
	DecodeChunkSize  int     `json:"decode_chunk_size,omitempty" example:"8"`
}

// ExtrasRequest is the payload for POST /api/sd/extras.
type ExtrasRequest struct {
	Image         string `json:"image"`
	EnableUpscale bool   `json:"enable_upscale,omitempty"`
}

// AudioRequest is the payload for POST /api/audiocraft/generate.
type AudioRequest struct {
	Prompt string `json:"prompt"`
	// Melody conditioning audio; only honored for musicgen models.
	InputAudio      string         `json:"input_audio,omitempty"`
	ModelName       string         `json:"model_name"`
	ModelType       AudioModelType `json:"model_type" example:"musicgen"`
	Duration        int            `json:"duration,omitempty" example:"10"`
	TopK            int            `json:"top_k,omitempty" example:"250"`
	TopP            float64        `json:"top_p,omitempty"`
	Temperature     float64        `json:"temperature,omitempty" example:"1.0"`
	CFGCoef         float64        `json:"cfg_coef,omitempty" example:"3.0"`
	EnableMultiband bool           `json:"enable_multiband,omitempty"`
}

// GenerateResponse is the common result shape for the non-chat tabs:
// exactly one of Artifact or Message is meaningful. Validation failures,
// cancellation and known incompatibilities arrive in Message with a 200;
// unexpected failures surface as HTTP errors.
type GenerateResponse struct {
	Artifact *Artifact `json:"artifact,omitempty"`
	// Secondary artifacts, e.g. the multiband-diffusion refinement track.
	Extra   []Artifact `json:"extra,omitempty"`
	Message string     `json:"message,omitempty"`
}

// ModelsResponse wraps the per-modality model lists for GET /api/models.
type ModelsResponse struct {
	LLMModels        []Model  `json:"llm_models"`
	SDModels         []Model  `json:"sd_models"`
	VAEModels        []Model  `json:"vae_models"`
	LoraModels       []Model  `json:"lora_models"`
	InpaintModels    []Model  `json:"inpaint_models"`
	AudiocraftModels []string `json:"audiocraft_models"`
	Avatars          []string `json:"avatars"`
	Voices           []string `json:"voices"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	// Selected compute device, "cuda" or "cpu".
	Device string `json:"device" example:"cuda"`
	// Device description when an accelerator is present.
	DeviceName string `json:"device_name,omitempty"`
	// Host memory currently available, in MB.
	FreeMemoryMB uint64 `json:"free_memory_mb"`
	// True while a generation is in flight.
	Busy bool `json:"busy"`
	// Uptime of the server in seconds.
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	ServerTime    int64 `json:"server_time_unix"`
	// Totals per modality since start.
	GenerationsTotal map[string]uint64 `json:"generations_total"`
}

// UploadResponse is returned by POST /api/upload.
type UploadResponse struct {
	Path string `json:"path"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// SettingsRequest is the payload for POST /api/settings.
type SettingsRequest struct {
	// Share mode exposes the listener on all interfaces instead of localhost.
	ShareMode bool `json:"share_mode"`
}
