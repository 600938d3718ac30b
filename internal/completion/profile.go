package completion

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultSystemPrompt = "You are a helpful AI assistant."

// Profile is the assistant persona loaded from YAML:
//
//	system: You are a helpful AI assistant.
//	style:
//	  temperature: 0.7
//	  max_tokens: 150
type Profile struct {
	System string `yaml:"system"`
	Style  struct {
		Temperature float32 `yaml:"temperature"`
		MaxTokens   int     `yaml:"max_tokens"`
	} `yaml:"style"`
}

func DefaultProfile() Profile {
	var p Profile
	p.System = DefaultSystemPrompt
	p.Style.Temperature = DefaultTemperature
	p.Style.MaxTokens = DefaultMaxTokens
	return p
}

// LoadProfile reads the profile at path. A missing file yields
// DefaultProfile; unset fields keep their defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if strings.TrimSpace(path) == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		return Profile{}, fmt.Errorf("completion: read profile: %w", err)
	}
	var loaded Profile
	if err := yaml.Unmarshal(b, &loaded); err != nil {
		return Profile{}, fmt.Errorf("completion: parse profile %s: %w", path, err)
	}
	if s := strings.TrimSpace(loaded.System); s != "" {
		p.System = s
	}
	if loaded.Style.Temperature > 0 {
		p.Style.Temperature = loaded.Style.Temperature
	}
	if loaded.Style.MaxTokens > 0 {
		p.Style.MaxTokens = loaded.Style.MaxTokens
	}
	return p, nil
}
