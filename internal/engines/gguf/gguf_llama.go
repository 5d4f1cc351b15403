//go:build llama

package gguf

import (
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"

	"ttsloader/internal/modelerr"
)

// Built reports whether this binary links llama.cpp.
const Built = true

// Backbone owns a llama.cpp model loaded from a GGUF file.
type Backbone struct {
	Path  string
	model *llama.LLama
}

// Open loads the GGUF file at path. Accelerated devices offload every layer.
func Open(path, device string, o Options) (*Backbone, error) {
	if strings.TrimSpace(path) == "" {
		return nil, modelerr.NotFound("gguf path is empty")
	}
	mo := []llama.ModelOption{llama.SetContext(o.context())}
	if device != "cpu" {
		mo = append(mo, llama.SetGPULayers(o.gpuLayers()))
	}
	m, err := llama.New(path, mo...)
	if err != nil {
		return nil, modelerr.Initialization("llama.cpp load "+path, err)
	}
	return &Backbone{Path: path, model: m}, nil
}

func (b *Backbone) Close() error {
	if b.model != nil {
		b.model.Free()
		b.model = nil
	}
	return nil
}
