package main

import (
	"flag"
	"os"
)

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Addr        string
	NetworkFile string
	DBPath      string
	LogLevel    string
}

// configResolver defines how to resolve a single configuration value.
type configResolver struct {
	flagName    string
	envVarName  string
	defaultVal  string
	description string
	setter      func(*ServerConfig, string)
}

// loadServerConfig loads server configuration from CLI flags and environment
// variables, flags taking precedence. Adding an option means adding a
// resolver.
func loadServerConfig() ServerConfig {
	cfg := ServerConfig{}

	resolvers := []configResolver{
		{
			flagName:    "addr",
			envVarName:  "RXNSIM_ADDR",
			defaultVal:  ":8080",
			description: "HTTP listen address (e.g. :8080, 0.0.0.0:8080)",
			setter:      func(c *ServerConfig, v string) { c.Addr = v },
		},
		{
			flagName:    "network-file",
			envVarName:  "RXNSIM_NETWORK_FILE",
			defaultVal:  "",
			description: "optional path to a network JSON file to load at startup",
			setter:      func(c *ServerConfig, v string) { c.NetworkFile = v },
		},
		{
			flagName:    "db",
			envVarName:  "RXNSIM_DB",
			defaultVal:  "",
			description: "optional SQLite path for persisting networks and runs",
			setter:      func(c *ServerConfig, v string) { c.DBPath = v },
		},
		{
			flagName:    "log-level",
			envVarName:  "RXNSIM_LOG_LEVEL",
			defaultVal:  "info",
			description: "Log level: debug, info, warn, error",
			setter:      func(c *ServerConfig, v string) { c.LogLevel = v },
		},
	}

	flagVars := make(map[string]*string)
	for _, resolver := range resolvers {
		flagVars[resolver.flagName] = flag.String(resolver.flagName, "", resolver.description)
	}

	flag.Parse()

	for _, resolver := range resolvers {
		var value string
		if *flagVars[resolver.flagName] != "" {
			value = *flagVars[resolver.flagName]
		} else if envValue := os.Getenv(resolver.envVarName); envValue != "" {
			value = envValue
		} else {
			value = resolver.defaultVal
		}
		resolver.setter(&cfg, value)
	}

	return cfg
}
