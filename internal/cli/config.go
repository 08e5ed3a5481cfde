package cli

import "os"

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Name      string
	Rating    int
	PlayerID  string
	Output    string
	Verbose   bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("LASERCHESS_SERVER", "ws://localhost:8765/ws"),
		Name:      os.Getenv("LASERCHESS_NAME"),
		PlayerID:  os.Getenv("LASERCHESS_PLAYER_ID"),
		Output:    "text",
		Verbose:   false,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
