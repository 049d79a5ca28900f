package store

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"tokenscope/internal/acl/models"
)

// SeedToken is one bootstrap token. AccessorID is required so that
// re-importing the file is a no-op. Secret is cleartext and is hashed on
// import; omit it to have one generated.
type SeedToken struct {
	AccessorID                string `yaml:"accessor_id"`
	Secret                    string `yaml:"secret"`
	models.CreateTokenRequest `yaml:",inline"`
}

type seedFile struct {
	Tokens []SeedToken `yaml:"tokens"`
}

// LoadSeedFile reads bootstrap tokens from a YAML file.
func LoadSeedFile(path string) ([]SeedToken, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

// ParseSeed decodes a seed document of the form:
//
//	tokens:
//	  - accessor_id: 9a1b...
//	    secret: dev-secret
//	    name: ci
//	    policies: [{name: deploy}]
//
// Unknown keys are rejected so typos surface at startup.
func ParseSeed(r io.Reader) ([]SeedToken, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc seedFile
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Tokens))
	for i := range doc.Tokens {
		st := &doc.Tokens[i]
		st.AccessorID = strings.TrimSpace(st.AccessorID)
		if st.AccessorID == "" {
			return nil, fmt.Errorf("seed token %d: accessor_id is required", i)
		}
		if _, err := uuid.Parse(st.AccessorID); err != nil {
			return nil, fmt.Errorf("seed token %d: accessor_id must be a UUID", i)
		}
		if _, dup := seen[st.AccessorID]; dup {
			return nil, fmt.Errorf("seed token %d: duplicate accessor_id %s", i, st.AccessorID)
		}
		seen[st.AccessorID] = struct{}{}
	}
	return doc.Tokens, nil
}
