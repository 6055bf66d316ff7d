package entitlement

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlEntitlement decodes the three entitlement shapes a policy file can
// express: a bare boolean (permission), a bare integer (cap), or a
// {daily, monthly} mapping (metered quota).
type yamlEntitlement struct {
	ent Entitlement
}

func (y *yamlEntitlement) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var enabled bool
		if err := node.Decode(&enabled); err == nil {
			y.ent = Permission(enabled)
			return nil
		}
		var maxVal int64
		if err := node.Decode(&maxVal); err == nil {
			y.ent = Cap(maxVal)
			return nil
		}
		return fmt.Errorf("entitlement value %q is neither bool nor integer", node.Value)
	case yaml.MappingNode:
		var q Quota
		if err := node.Decode(&q); err != nil {
			return err
		}
		y.ent = Metered(q.Daily, q.Monthly)
		return nil
	}
	return fmt.Errorf("unsupported entitlement node at line %d", node.Line)
}

type yamlPolicyFile struct {
	Tiers map[string]map[string]yamlEntitlement `yaml:"tiers"`
}

// LoadPolicy reads a policy table from YAML. Feature and tier names are
// validated against the closed vocabularies and the resulting table must
// pass Validate, so an edited file cannot silently drop an entry or
// invert the tier order.
func LoadPolicy(r io.Reader) (Policy, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Join(ErrInvalidPolicy, err)
	}

	var file yamlPolicyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Join(ErrInvalidPolicy, err)
	}

	policy := make(Policy, len(file.Tiers))
	for tierName, features := range file.Tiers {
		tier := Tier(tierName)
		if !tier.Valid() {
			return nil, errors.Join(ErrUnknownTier, fmt.Errorf("tier %q", tierName))
		}
		policy[tier] = make(map[Feature]Entitlement, len(features))
		for featureName, ye := range features {
			feature := Feature(featureName)
			if !feature.Valid() {
				return nil, errors.Join(ErrUnknownFeature, fmt.Errorf("feature %q", featureName))
			}
			policy[tier][feature] = ye.ent
		}
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}

// LoadPolicyFile is a convenience wrapper around LoadPolicy for a file path.
func LoadPolicyFile(path string) (Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrInvalidPolicy, err)
	}
	defer f.Close()
	return LoadPolicy(f)
}
