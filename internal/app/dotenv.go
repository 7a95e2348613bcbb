package app

import (
	"os"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// LoadDotenv loads variables from the given files (".env" when none are
// given) without overriding the environment. Missing files are skipped;
// unreadable or malformed ones are logged and skipped.
func LoadDotenv(lg *zap.Logger, files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			continue
		}
		lg.Warn("Skipping dotenv file", zap.String("path", f), zap.Error(err))
	}
}
