package main

import (
	"log"

	"github.com/joho/godotenv"

	"etmam/internal/app/server"
)

func main() {
	// Missing .env is fine in deployed environments.
	if err := godotenv.Load(); err == nil {
		log.Println("loaded configuration from .env")
	}
	server.Run()
}
