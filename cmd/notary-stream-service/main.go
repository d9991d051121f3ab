// Package main is the notary-stream-service entry point (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/tonote/notary-stream-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
