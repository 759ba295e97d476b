package config

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads every env file present in dir. Variables already set in
// the process environment are not overwritten.
func loadEnvFiles(dir string) []string {
	var loaded []string
	for _, name := range envFiles {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err == nil {
			loaded = append(loaded, p)
		}
	}
	return loaded
}

// envRef only matches the braced form so regexp replacements such as $1
// survive expansion. A doubled dollar escapes the reference: $${word} is
// kept as ${word}, which replace patterns read as a named capture.
var envRef = regexp.MustCompile(`\$?\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		if ref[1] == '$' {
			return append([]byte(nil), ref[1:]...)
		}
		return []byte(os.Getenv(string(ref[2 : len(ref)-1])))
	})
}
