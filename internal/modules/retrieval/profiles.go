package retrieval

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lexbridge/lexbridge-backend/internal/domain"
)

// BuiltinProfiles returns the four interpretation profiles the retriever
// ships with. Each one expresses a canon of legal interpretation as edge
// weights: a relation kind absent from a profile is not traversed under it.
func BuiltinProfiles() map[string]domain.WeightProfile {
	return map[string]domain.WeightProfile{
		"literal": {
			Name: "literal",
			Weights: map[string]float64{
				domain.RelationDefines:     0.9,
				domain.RelationContainedIn: 0.8,
				domain.RelationPartOf:      0.6,
				domain.RelationRelatesTo:   0.3,
			},
		},
		"systemic": {
			Name: "systemic",
			Weights: map[string]float64{
				domain.RelationPartOf:      0.9,
				domain.RelationContainedIn: 0.7,
				domain.RelationRelatesTo:   0.7,
				domain.RelationCites:       0.5,
			},
		},
		"precedent": {
			Name: "precedent",
			Weights: map[string]float64{
				domain.RelationInterpretedBy: 0.9,
				domain.RelationApplies:       0.8,
				domain.RelationCites:         0.7,
				domain.RelationRelatesTo:     0.4,
			},
		},
		"doctrinal": {
			Name: "doctrinal",
			Weights: map[string]float64{
				domain.RelationCommentedBy: 0.9,
				domain.RelationRelatesTo:   0.6,
				domain.RelationDefines:     0.5,
				domain.RelationCites:       0.4,
			},
		},
	}
}

type profileFile struct {
	Profiles []profileSpec `yaml:"profiles"`
}

type profileSpec struct {
	Name    string             `yaml:"name"`
	Weights map[string]float64 `yaml:"weights"`
}

// LoadProfiles returns the builtin profiles merged with overrides from the
// YAML file at path, if one is given. An override with a known name replaces
// the builtin wholesale; a new name adds a profile. Weights must fall in
// (0, 1] and relation kinds are lowercased on load.
func LoadProfiles(path string) (map[string]domain.WeightProfile, error) {
	profiles := BuiltinProfiles()
	if path == "" {
		return profiles, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file %q: %w", path, err)
	}
	var file profileFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse profiles file %q: %w", path, err)
	}

	for _, spec := range file.Profiles {
		name := strings.ToLower(strings.TrimSpace(spec.Name))
		if name == "" {
			return nil, fmt.Errorf("profiles file %q: profile with empty name", path)
		}
		if len(spec.Weights) == 0 {
			return nil, fmt.Errorf("profiles file %q: profile %q has no weights", path, name)
		}
		weights := make(map[string]float64, len(spec.Weights))
		for kind, w := range spec.Weights {
			kind = strings.ToLower(strings.TrimSpace(kind))
			if w <= 0 || w > 1 {
				return nil, fmt.Errorf("profiles file %q: profile %q weight for %q out of range (0, 1]: %v", path, name, kind, w)
			}
			weights[kind] = w
		}
		profiles[name] = domain.WeightProfile{Name: name, Weights: weights}
	}
	return profiles, nil
}
