package env

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv reads a .env file from the working directory into the process
// environment, without overriding variables already set.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("No .env file found, assuming environment variables are set directly.")
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
