package main

// General API documentation for swaggo. Run `swag init -g cmd/ttsloader/docs.go` to regenerate docs.
//
// @title           ttsloader API
// @version         1.0
// @description     HTTP API for TTS model loading: device resolution, engine capabilities and fallback loading.
//
// @contact.name   ttsloader maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
