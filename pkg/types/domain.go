package types

// LocalModel is a model directory discovered under the models dir.
type LocalModel struct {
	// Stable identifier: "<engine>/<name>".
	// example: f5tts/F5TTS_v1_Base
	ID string `json:"id" example:"f5tts/F5TTS_v1_Base"`
	// Engine the model belongs to.
	// example: f5tts
	Engine string `json:"engine" example:"f5tts"`
	// Model name as passed to a load request (usable with the local: prefix).
	// example: F5TTS_v1_Base
	Name string `json:"name" example:"F5TTS_v1_Base"`
	// Absolute path of the model directory.
	// example: /home/user/models/tts/f5tts/F5TTS_v1_Base
	Path string `json:"path" example:"/home/user/models/tts/f5tts/F5TTS_v1_Base"`
	// Weight file format detected from extensions (safetensors, pt, bin, gguf, onnx).
	// example: safetensors
	Format string `json:"format,omitempty" example:"safetensors"`
	// Per-language subdirectories for engines that switch weights by language.
	// example: ["English","French"]
	Languages []string `json:"languages,omitempty"`
}
