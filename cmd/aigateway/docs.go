package main

// General API documentation for swaggo. Run `make swagger-gen` to generate docs.
//
// @title           aigateway API
// @version         1.0
// @description     Chat gateway for the course platform assistant: questions, chat history, file context and inference connection status.
//
// @contact.name   aigateway maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
