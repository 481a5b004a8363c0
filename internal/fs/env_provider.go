package fs

import (
	"os"
)

// HomeEnvVar names the variable used to locate the working copy.
const HomeEnvVar = "HOME"

// EnvProvider provides environment variable access.
type EnvProvider interface {
	// Get returns the value of the environment variable named by the key.
	Get(key string) string
}

// OSEnvProvider reads from the actual environment using os.Getenv.
type OSEnvProvider struct{}

// NewEnvProvider creates a new OSEnvProvider.
func NewEnvProvider() *OSEnvProvider {
	return &OSEnvProvider{}
}

// Get returns the value of the environment variable named by the key.
func (e *OSEnvProvider) Get(key string) string {
	return os.Getenv(key)
}

// HomeDir returns the home directory reported by the environment.
func HomeDir(env EnvProvider) (string, error) {
	home := env.Get(HomeEnvVar)
	if home == "" {
		return "", &MissingHomeError{}
	}
	return home, nil
}

type MissingHomeError struct{}

func (e *MissingHomeError) Error() string {
	return HomeEnvVar + " is not set; cannot locate the working copy"
}
