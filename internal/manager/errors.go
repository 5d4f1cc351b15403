package manager

// engineNotRegisteredError signals a load for an engine without a loader.
type engineNotRegisteredError struct{ id string }

func (e engineNotRegisteredError) Error() string { return "engine not registered: " + e.id }

func ErrEngineNotRegistered(id string) error { return engineNotRegisteredError{id: id} }

// IsEngineNotRegistered reports whether err names an engine with no loader.
func IsEngineNotRegistered(err error) bool {
	_, ok := err.(engineNotRegisteredError)
	return ok
}

// notLoadedError signals an unload or lookup of a key that is not cached.
type notLoadedError struct{ key string }

func (e notLoadedError) Error() string { return "not loaded: " + e.key }

func ErrNotLoaded(key string) error { return notLoadedError{key: key} }

// IsNotLoaded reports whether err indicates a missing cache key.
func IsNotLoaded(err error) bool {
	_, ok := err.(notLoadedError)
	return ok
}

// invalidRequestError signals a malformed load request (400).
type invalidRequestError struct{ msg string }

func (e invalidRequestError) Error() string { return "invalid request: " + e.msg }

func ErrInvalidRequest(msg string) error { return invalidRequestError{msg: msg} }

// IsInvalidRequest reports whether err indicates a malformed request.
func IsInvalidRequest(err error) bool {
	_, ok := err.(invalidRequestError)
	return ok
}
