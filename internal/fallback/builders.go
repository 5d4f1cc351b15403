package fallback

import (
	"errors"
	"io/fs"

	"ttsloader/internal/modelerr"
)

// RemoteName is the display name of the remote fallback added by
// WithLocalThenRemote.
const RemoteName = "Remote (HuggingFace)"

// WithLanguageFallback appends one fallback per language in langs, skipping
// primary. factory builds the loader for a language; fallbacks are named
// "<lang> model".
func (h *Handler[T]) WithLanguageFallback(primary string, langs []string, factory func(lang string) Loader[T]) *Handler[T] {
	for _, lang := range langs {
		if lang == primary {
			continue
		}
		h.AddFallback(factory(lang), nil, lang+" model")
	}
	return h
}

// WithLocalThenRemote appends a remote loader that only runs when the
// previous failure is not-found shaped, so format or device errors never
// trigger a download.
func (h *Handler[T]) WithLocalThenRemote(remote Loader[T]) *Handler[T] {
	return h.AddFallback(remote, IsNotFoundShaped, RemoteName)
}

// NewLanguageChain builds a handler that loads primary first, then each
// other language in langs.
func NewLanguageChain[T any](primary string, langs []string, load func(lang string) (T, error), name string, opts ...Option) *Handler[T] {
	h := New(func() (T, error) { return load(primary) }, name, opts...)
	return h.WithLanguageFallback(primary, langs, func(lang string) Loader[T] {
		return func() (T, error) { return load(lang) }
	})
}

// IsNotFoundShaped matches the not-found kind and filesystem not-exist errors.
func IsNotFoundShaped(err error) bool {
	return modelerr.IsNotFound(err) || errors.Is(err, fs.ErrNotExist)
}

// OnKinds returns a predicate matching any of the given failure kinds.
func OnKinds(kinds ...modelerr.Kind) Predicate {
	return func(err error) bool {
		k, ok := modelerr.KindOf(err)
		if !ok {
			return false
		}
		for _, want := range kinds {
			if k == want {
				return true
			}
		}
		return false
	}
}
