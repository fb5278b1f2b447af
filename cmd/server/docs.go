// Package main Omni Media API
//
//	@title						Omni Media API
//	@version					1.0
//	@description				Image, video and GIF generation over a pluggable backend.
//
//	@license.name				Proprietary
//
//	@host						localhost:8080
//	@BasePath					/v1
//
//	@securityDefinitions.apikey	APIKeyAuth
//	@in							header
//	@name						X-API-Key
//	@description				API key. Optional unless auth.require_keys is set.
//
//	@tag.name					Generation
//	@tag.description			Synchronous generation
//
//	@tag.name					Jobs
//	@tag.description			Queued generation jobs
//
//	@tag.name					Admin
//	@tag.description			Security and runtime diagnostics
//
//	@tag.name					System
//	@tag.description			Liveness
package main
