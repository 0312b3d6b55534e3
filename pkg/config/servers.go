// Named tool-server registry loaded from a YAML file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// serversFile mirrors the YAML servers registry:
//
//	servers:
//	  weather: ./servers/weather.py
//	  search: https://search.example.com/mcp
type serversFile struct {
	Servers map[string]string `yaml:"servers"`
}

// LoadServers reads a YAML servers registry. A missing path returns an
// empty registry so the flag stays optional.
func LoadServers(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return map[string]string{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read servers file: %w", err)
	}

	var parsed serversFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse servers file %s: %w", path, err)
	}

	servers := make(map[string]string, len(parsed.Servers))
	for name, spec := range parsed.Servers {
		name = strings.TrimSpace(name)
		spec = strings.TrimSpace(spec)
		if name == "" || spec == "" {
			continue
		}
		servers[name] = spec
	}
	return servers, nil
}

// ResolveServer maps a named registry entry to its spec. Specs that are
// not registry names pass through unchanged.
func ResolveServer(spec string, servers map[string]string) string {
	spec = strings.TrimSpace(spec)
	if mapped, ok := servers[spec]; ok {
		return mapped
	}
	return spec
}
