// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Every package in this module declares its own Config struct with env tags;
// this package is the single entry point that parses them:
//
//	var cfg queue.Config
//	config.MustLoad(&cfg)
//
// Parsing happens once per configuration type and the result is cached for
// the lifetime of the process.
package config
