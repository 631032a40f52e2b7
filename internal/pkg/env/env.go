package env

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// candidate .env locations relative to the working directory
var envFiles = []string{
	".env",
	"../../.env", // from cmd/nuoi
	"../../../.env",
}

// SetupEnvFile loads the first .env file found into the process environment.
// Variables that are already set win. A missing file is fine in production,
// where configuration comes from the real environment.
func SetupEnvFile() {
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			log.Printf("Loaded environment from %s", envFile)
			return
		}
	}
	log.Print("No .env file found, using process environment")
}

func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
