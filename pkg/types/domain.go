package types

// Modality identifies which generation family an operation belongs to.
type Modality string

const (
	ModalityChat    Modality = "chat"
	ModalityTxt2Img Modality = "txt2img"
	ModalityImg2Img Modality = "img2img"
	ModalityInpaint Modality = "inpaint"
	ModalityVideo   Modality = "video"
	ModalityExtras  Modality = "extras"
	ModalityAudio   Modality = "audio"
)

// LLMModelType selects the loader used for a text model.
type LLMModelType string

const (
	LLMTypeTransformers LLMModelType = "transformers"
	LLMTypeLlama        LLMModelType = "llama"
)

// SDModelType selects one of the three diffusion pipeline presets. Each
// preset pins a base config file and a pipeline class in the runtime.
type SDModelType string

const (
	SDTypeSD   SDModelType = "SD"
	SDTypeSD2  SDModelType = "SD2"
	SDTypeSDXL SDModelType = "SDXL"
)

// AudioModelType selects the audiocraft model family.
type AudioModelType string

const (
	AudioTypeMusicgen AudioModelType = "musicgen"
	AudioTypeAudiogen AudioModelType = "audiogen"
	AudioTypeMagnet   AudioModelType = "magnet"
)

// Model represents a discoverable model under the inputs tree.
type Model struct {
	// Stable identifier (usually the file or directory name).
	// example: tinyllama-q4.gguf
	ID string `json:"id" example:"tinyllama-q4.gguf"`
	// Human-friendly name.
	Name string `json:"name"`
	// Absolute path to the weights on disk.
	Path string `json:"path"`
}

// Artifact is the file produced by a successful generation.
type Artifact struct {
	// Path to the produced file, relative to the server working directory.
	// example: outputs/StableDiffusion_20240101/txt2img_20240101_120000.png
	Path string `json:"path"`
	// Modality that produced the artifact.
	Modality Modality `json:"modality"`
}

// ChatTurn is one (prompt, response) pair in a chat session. Either side
// may be empty when the turn only carries a user-facing message.
type ChatTurn struct {
	Human string `json:"human,omitempty"`
	AI    string `json:"ai,omitempty"`
}
