package dispatch

// User-facing result messages. These travel in the response body with a
// 200 status; only unexpected failures become HTTP errors.
const (
	msgSelectLLMModel      = "Please, select a LLM model!"
	msgEnterRequest        = "Please, enter your request!"
	msgSelectVoiceLanguage = "Please, select a voice and language for TTS!"
	msgSelectSDModel       = "Please, select a StableDiffusion model!"
	msgUploadInitImage     = "Please, upload an initial image!"
	msgUploadInitAndMask   = "Please, upload an initial image and a mask image!"
	msgSelectAudioModel    = "Please, select an AudioCraft model!"
	msgEnableUpscale       = "Please enable upscale to generate an image!"
	msgUpscaleLoadFailed   = "Failed to load upscale model"
	msgInvalidSDType       = "Invalid StableDiffusion model type!"
	msgInvalidAudioType    = "Invalid model type!"
	msgIncompatibleType    = "The selected model is not compatible with the chosen model type"

	msgMagnetUnsupported = "The 'magnet' model type is currently not supported, but it will be available in a future update. Please select another model type for now"
	msgMultibandLimited  = "Multiband Diffusion is not supported with 'audiogen' or 'magnet' model types. Please select 'musicgen' or disable Multiband Diffusion"
)

// busyError signals that a generation is already in flight (maps to 429).
type busyError struct{}

func (busyError) Error() string { return "a generation is already in progress" }

// ErrBusy constructs the backpressure error.
func ErrBusy() error { return busyError{} }

// IsBusy reports whether err indicates single-flight backpressure.
func IsBusy(err error) bool {
	_, ok := err.(busyError)
	return ok
}
