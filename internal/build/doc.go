// Package build renders every document of a source tree into Svelte
// components.
//
// A run walks the source directory, skips documents the previous manifest
// proves unchanged, processes the rest with bounded concurrency and writes
// each output atomically. All entry points (the build command, the watcher,
// tests) go through Builder.Run.
package build
