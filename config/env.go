package config

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env (and .env.local when present) into the process
// environment. Variables already set win.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
		return
	}
	_ = godotenv.Load(".env.local")
	log.Println("Environment variables loaded from .env")
}
