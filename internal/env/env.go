/*
Package env loads environment variables from a dotenv-style file before flag
parsing, so local runs can keep their settings next to the binary.
*/
package env

import (
	"os"
	"strings"
)

/*
Load reads KEY=VALUE lines from the file at path and sets any variable not
already present in the environment.  A missing file is not an error; blank
lines and lines starting with # are skipped.
*/
func Load(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		key = strings.TrimSpace(key)
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, strings.TrimSpace(value))
		}
	}
}
