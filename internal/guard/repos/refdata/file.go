package refdata

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
)

// parserFor picks the koanf parser from the file extension.
func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	case ".toml":
		return toml.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported reference file type: %s", path)
	}
}

// LoadFile reads reference tables from a YAML, JSON or TOML file. Every list
// except blocklist must be present and non-empty; the file replaces the
// built-in tables entirely.
func LoadFile(path string) (Tables, error) {
	parser, err := parserFor(path)
	if err != nil {
		return Tables{}, err
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return Tables{}, fmt.Errorf("error loading reference file %s: %w", path, err)
	}

	var t Tables
	if err := k.Unmarshal("", &t); err != nil {
		return Tables{}, fmt.Errorf("error unmarshalling reference file %s: %w", path, err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&t); err != nil {
		return Tables{}, fmt.Errorf("invalid reference file %s: %w", path, err)
	}

	t.Source = path
	return t, nil
}
