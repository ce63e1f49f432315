package pomomo

import (
	"github.com/joho/godotenv"
)

// LoadEnv populates the process environment from .env (prod) or .env.dev.
// Missing files are ignored.
func LoadEnv(isProd bool) {
	if isProd {
		_ = godotenv.Load(".env")
	} else {
		_ = godotenv.Load(".env.dev")
	}
}
