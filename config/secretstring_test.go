package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	yaml "gopkg.in/yaml.v3"
)

func TestSecretString_Marshal(t *testing.T) {
	tests := []struct {
		name     string
		input    SecretString
		wantJSON string
		wantYAML any
	}{
		{"empty", "", "null", nil},
		{"short", "x", `"` + SecretStringValue + `"`, SecretStringValue},
		{"token", "sk-live-0123456789", `"` + SecretStringValue + `"`, SecretStringValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.input.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON() error = %v", err)
			}
			if string(got) != tt.wantJSON {
				t.Errorf("MarshalJSON() = %s, want %s", got, tt.wantJSON)
			}

			y, err := tt.input.MarshalYAML()
			if err != nil {
				t.Fatalf("MarshalYAML() error = %v", err)
			}
			if y != tt.wantYAML {
				t.Errorf("MarshalYAML() = %v, want %v", y, tt.wantYAML)
			}
		})
	}
}

func TestSecretString_NoLeakage(t *testing.T) {
	const secret = "bearer-token-value"
	gen := GenerationConfig{Endpoint: "http://localhost:3000/api/generate", APIKey: secret}

	data, err := json.Marshal(gen)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), secret) {
		t.Errorf("JSON leaks secret: %s", data)
	}

	data, err = yaml.Marshal(gen)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), secret) {
		t.Errorf("YAML leaks secret: %s", data)
	}

	if s := fmt.Sprintf("%v %s", gen.APIKey, gen.APIKey); strings.Contains(s, secret) {
		t.Errorf("formatting leaks secret: %s", s)
	}

	// the raw value is still available to the code which needs it
	if string(gen.APIKey) != secret {
		t.Errorf("string conversion = %q, want %q", string(gen.APIKey), secret)
	}
}

func TestSecretString_Unmarshal(t *testing.T) {
	var gen GenerationConfig
	if err := yaml.Unmarshal([]byte("api_key: abc\n"), &gen); err != nil {
		t.Fatal(err)
	}
	if string(gen.APIKey) != "abc" {
		t.Errorf("APIKey = %q, want abc", string(gen.APIKey))
	}
}
