package main

import (
	"log"
	"os"
)

func main() {
	if err := RunCLI(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
