// Package engine is a minimal engine-side listener for notification
// channels. It decodes length-prefixed frames from any number of clients and
// optionally answers each one. The attachnotify CLI uses it for the engine
// command and end-to-end tests use it as a stand-in engine.
package engine
