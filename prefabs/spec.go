package prefabs

import (
	"fmt"
	"image/color"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, oops.Code("PREFAB_LOAD_FAILED").With("prefab", filename).Wrapf(err, "prefabs: load %s", filename)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, oops.Code("PREFAB_LOAD_FAILED").With("prefab", filename).Wrapf(err, "prefabs: unmarshal %s", filename)
	}

	return spec, nil
}

// Decode re-encodes a loosely typed YAML value (an action argument, for
// instance) into T.
func Decode[T any](raw any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

type EnemySpec struct {
	Name      string                    `yaml:"name"`
	Atlas     string                    `yaml:"atlas"`
	Faction   string                    `yaml:"faction"`
	Health    int                       `yaml:"health"`
	Gravity   bool                      `yaml:"gravity"`
	Collider  ColliderSpec              `yaml:"collider"`
	Color     *YAMLColor                `yaml:"color"`
	Loop      LoopSpec                  `yaml:"loop"`
	Damage    map[string]DamageRuleSpec `yaml:"damage"`
	Sounds    map[string]string         `yaml:"sounds"`
	Script    string                    `yaml:"script"`
	Animation string                    `yaml:"animation"`
}

func LoadEnemySpec(name string) (*EnemySpec, error) {
	spec, err := LoadSpec[EnemySpec](specFile(name))
	if err != nil {
		return nil, err
	}
	if spec.Name == "" {
		spec.Name = strings.TrimSuffix(path.Base(name), ".yaml")
	}
	return &spec, nil
}

type LoopSpec struct {
	Initial string      `yaml:"initial"`
	States  []StateSpec `yaml:"states"`
}

type StateSpec struct {
	Name         string     `yaml:"name"`
	Duration     float64    `yaml:"duration"`
	Manual       bool       `yaml:"manual"`
	Animation    string     `yaml:"animation"`
	Move         *MoveSpec  `yaml:"move"`
	FaceTarget   bool       `yaml:"face_target"`
	Invulnerable bool       `yaml:"invulnerable"`
	Marks        []MarkSpec `yaml:"marks"`
}

// MoveSpec sets the velocity of a state. When To is present the velocity
// is eased from From to To across the state's duration.
type MoveSpec struct {
	From Vec2   `yaml:"from"`
	To   *Vec2  `yaml:"to"`
	Ease string `yaml:"ease"`
	// Relative flips X by the facing direction.
	Relative bool `yaml:"relative"`
}

type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type MarkSpec struct {
	At      float64          `yaml:"at"`
	Actions []map[string]any `yaml:"actions"`
}

// DamageRuleSpec is the YAML form of a damage.Rule. A bare scalar is read
// as a fixed amount, "kill" or "immune".
type DamageRuleSpec struct {
	Fixed     *int    `yaml:"fixed"`
	Scale     float64 `yaml:"scale"`
	Kill      bool    `yaml:"kill"`
	Immune    bool    `yaml:"immune"`
	PerCharge int     `yaml:"per_charge"`
}

func (d *DamageRuleSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		switch strings.ToLower(value.Value) {
		case "kill":
			d.Kill = true
			return nil
		case "immune":
			d.Immune = true
			return nil
		}
		n, err := strconv.Atoi(value.Value)
		if err != nil {
			return fmt.Errorf("damage rule %q: expected an amount, kill or immune", value.Value)
		}
		d.Fixed = &n
		return nil
	}
	type plain DamageRuleSpec
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*d = DamageRuleSpec(p)
	return nil
}

type ProjectileSpec struct {
	Name     string       `yaml:"name"`
	Atlas    string       `yaml:"atlas"`
	Region   string       `yaml:"region"`
	Kind     string       `yaml:"kind"`
	Amount   int          `yaml:"amount"`
	Charge   int          `yaml:"charge"`
	Speed    float64      `yaml:"speed"`
	TTL      float64      `yaml:"ttl"`
	Gravity  bool         `yaml:"gravity"`
	Collider ColliderSpec `yaml:"collider"`
	Color    *YAMLColor   `yaml:"color"`
}

func LoadProjectileSpec(name string) (*ProjectileSpec, error) {
	spec, err := LoadSpec[ProjectileSpec](specFile("projectiles/" + name))
	if err != nil {
		return nil, err
	}
	if spec.Name == "" {
		spec.Name = strings.TrimSuffix(path.Base(name), ".yaml")
	}
	return &spec, nil
}

// EnemyNames lists the enemy prefabs, disk overrides included.
func EnemyNames() ([]string, error) {
	return prefabNames("enemies")
}

// ProjectileNames lists the projectile prefabs, disk overrides included.
func ProjectileNames() ([]string, error) {
	return prefabNames("projectiles")
}

func prefabNames(dir string) ([]string, error) {
	seen := map[string]bool{}
	for _, fsys := range []fs.FS{diskFS(), PrefabsFS} {
		if fsys == nil {
			continue
		}
		entries, err := fs.ReadDir(fsys, dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !isSpecFile(e.Name()) {
				continue
			}
			seen[strings.TrimSuffix(e.Name(), path.Ext(e.Name()))] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

type ColliderSpec struct {
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	OffsetX float64 `yaml:"offsetX"`
	OffsetY float64 `yaml:"offsetY"`
}

type YAMLColor struct {
	color.Color
}

func (c *YAMLColor) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}

	s := strings.TrimPrefix(value.Value, "#")

	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}

	parse := func(start int) (uint8, error) {
		v, err := strconv.ParseUint(s[start:start+2], 16, 8)
		return uint8(v), err
	}

	r, err := parse(0)
	if err != nil {
		return err
	}
	g, err := parse(2)
	if err != nil {
		return err
	}
	b, err := parse(4)
	if err != nil {
		return err
	}

	a := uint8(255)
	if len(s) == 8 {
		a, err = parse(6)
		if err != nil {
			return err
		}
	}

	c.Color = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}

func specFile(name string) string {
	clean := cleanPrefabPath(name)
	if !strings.Contains(clean, "/") {
		clean = "enemies/" + clean
	}
	if !isSpecFile(clean) {
		clean += ".yaml"
	}
	return clean
}
