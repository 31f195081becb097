package main

import "embed"

//go:embed configs/config.yaml
var configsFS embed.FS

// defaultConfigYAML returns the annotated default config the installer
// seeds into the data directory. The embed guarantees it exists; the error
// path only trips if the build itself is broken.
func defaultConfigYAML() []byte {
	data, err := configsFS.ReadFile("configs/config.yaml")
	if err != nil {
		return nil
	}
	return data
}
