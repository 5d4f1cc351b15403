//go:build !llama

package gguf

import "ttsloader/internal/modelerr"

// Built reports whether this binary links llama.cpp.
const Built = false

// Backbone is empty without the llama build tag.
type Backbone struct {
	Path string
}

// Open fails fast: GGUF backbones need a binary built with -tags=llama.
func Open(path, device string, o Options) (*Backbone, error) {
	return nil, modelerr.Initialization("gguf support not built (missing 'llama' build tag)", nil)
}

func (b *Backbone) Close() error { return nil }
