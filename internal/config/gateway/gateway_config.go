package gateway

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host                string `json:"host" yaml:"host"`
	Port                int    `json:"port" yaml:"port"`
	ReadTimeoutSeconds  int    `json:"readTimeoutSeconds" yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds int    `json:"writeTimeoutSeconds" yaml:"writeTimeoutSeconds"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:                "0.0.0.0",
		Port:                8000,
		ReadTimeoutSeconds:  15,
		WriteTimeoutSeconds: 150,
	}
}
