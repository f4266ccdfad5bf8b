// Package main implements the entry point for the presser server, which
// accepts page URLs over HTTP and renders them to PDF asynchronously.
package main

import (
	"log"
)

// main loads configuration, wires the application, and runs the HTTP server
// until it receives a shutdown signal.
func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
