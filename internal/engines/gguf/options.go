// Package gguf loads GGUF language-model backbones used by some TTS engines
// through llama.cpp. Real loading requires the `llama` build tag; default
// builds get a stub that reports an initialization error.
package gguf

const (
	defaultContext   = 2048
	defaultGPULayers = 999
)

// Options tune backbone loading. Zero values select defaults.
type Options struct {
	Context   int
	GPULayers int
}

func (o Options) context() int {
	if o.Context > 0 {
		return o.Context
	}
	return defaultContext
}

func (o Options) gpuLayers() int {
	if o.GPULayers > 0 {
		return o.GPULayers
	}
	return defaultGPULayers
}
