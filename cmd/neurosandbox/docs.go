package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           NeuroSandboxWebUI API
// @version         1.0
// @description     HTTP API for local multimodal generation: LLM chat with voice, StableDiffusion images and video, AudioCraft audio.
//
// @contact.name   NeuroSandboxWebUI maintainers
// @contact.url    https://github.com/eltociear/NeuroSandboxWebUI
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
