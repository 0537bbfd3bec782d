package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by the CLI. Flags override them.
const (
	EnvFormat   = "WETWIRE_CODEBUILD_FORMAT"
	EnvLogLevel = "WETWIRE_CODEBUILD_LOG_LEVEL"
	EnvOutput   = "WETWIRE_CODEBUILD_OUTPUT"
	EnvRegion   = "AWS_REGION"
	EnvProfile  = "AWS_PROFILE"
)

// Env holds the CLI defaults taken from the environment.
type Env struct {
	Format   string
	LogLevel string
	Output   string
	Region   string
	Profile  string
}

// LoadDotEnv loads the given .env files into the process environment.
// Variables already set are kept and missing files are ignored.
func LoadDotEnv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// EnvFromOS reads the CLI defaults, falling back to json output.
func EnvFromOS() Env {
	return envFrom(os.Getenv)
}

// EnvFromFile reads the CLI defaults from a .env file without touching the
// process environment.
func EnvFromFile(path string) (Env, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return Env{}, err
	}
	return envFrom(func(key string) string { return values[key] }), nil
}

func envFrom(get func(string) string) Env {
	env := Env{
		Format:   get(EnvFormat),
		LogLevel: get(EnvLogLevel),
		Output:   get(EnvOutput),
		Region:   get(EnvRegion),
		Profile:  get(EnvProfile),
	}
	if env.Format == "" {
		env.Format = "json"
	}
	return env
}
