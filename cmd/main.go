// Package main is the entry point for mpvbridge.
//
// mpvbridge drives mpv over its JSON IPC socket and turns pointer input on
// its control window into seeks, volume and brightness changes.
//
// Build:
//
//	go build -o build/mpvbridge ./cmd
//
// Run:
//
//	./build/mpvbridge play movie.mkv
package main

import "github.com/sukerxi/mpvbridge/internal/cli"

func main() {
	cli.Execute()
}
