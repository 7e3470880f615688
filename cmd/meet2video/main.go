package main

import (
	"context"
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"github.com/ivlev/meet2video/internal/cli"
)

func main() {
	// Environment overrides (MEET2VIDEO_*) may come from a local .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[!] .env: %v", err)
	}

	root := cli.NewRootCmd(&cli.Dependencies{})
	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("[-] %v", err)
	}
}
