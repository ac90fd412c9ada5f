package importer

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ReadSeed parses a YAML or JSON seed file.
func ReadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, eris.Wrap(err, "importer: read seed")
	}
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, eris.Wrap(err, "importer: parse seed")
	}
	return s, nil
}
