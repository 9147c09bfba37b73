// Package main is the entry point for jsonapictl, a command line client
// that fetches JSON:API documents and decodes them against configured
// resource schemas.
package main

func main() {
	Execute()
}
