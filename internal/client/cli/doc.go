// Package cli provides the interactive Mealbook command-line client.
//
// It wires configuration, the local upload journal, the HTTP API client and
// an interactive REPL. Typical flow: register or log in, pick a meal, then
// work on its picture album: add files, watch uploads, mark the key picture,
// reorder, mark deletions, and flush the accumulated changes to the server.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
package cli
