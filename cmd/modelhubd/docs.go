package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           modelhub API
// @version         1.0
// @description     HTTP API for model discovery, resumable downloads and text generation.
//
// @contact.name   modelhub maintainers
// @contact.url    https://github.com/your-org/modelhub
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
