// Package main is the entry point for the wardmetrics CLI tool, which ingests
// Dota 2 ward placements and ranks ward spots by lifetime and sentry contest.
package main

import "github.com/pable/go-dota-wards/cmd"

func main() {
	cmd.Execute()
}
