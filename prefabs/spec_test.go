package prefabs

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func useDiskRoot(t *testing.T, dir string) {
	t.Helper()
	prev := DiskRoot()
	SetDiskRoot(dir)
	t.Cleanup(func() { SetDiskRoot(prev) })
}

func TestLoadEmbeddedEnemies(t *testing.T) {
	useDiskRoot(t, "")

	names, err := EnemyNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"bat", "megaman", "met", "sniper_joe"}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			spec, err := LoadEnemySpec(name)
			require.NoError(t, err)
			assert.Equal(t, name, spec.Name)
			assert.NotEmpty(t, spec.Loop.States)
			assert.Positive(t, spec.Health)
			assert.NotNil(t, spec.Color)
		})
	}
}

func TestLoadEnemySpecFields(t *testing.T) {
	useDiskRoot(t, "")

	met, err := LoadEnemySpec("met")
	require.NoError(t, err)
	assert.Equal(t, "hide", met.Loop.Initial)
	require.Len(t, met.Loop.States, 4)

	fire := met.Loop.States[2]
	assert.Equal(t, "fire", fire.Name)
	assert.Equal(t, 0.6, fire.Duration)
	require.Len(t, fire.Marks, 1)
	assert.Len(t, fire.Marks[0].Actions, 4)

	walk := met.Loop.States[3]
	require.NotNil(t, walk.Move)
	assert.True(t, walk.Move.Relative)
	assert.Equal(t, 40.0, walk.Move.From.X)

	require.Contains(t, met.Damage, "bullet")
	require.NotNil(t, met.Damage["bullet"].Fixed)
	assert.Equal(t, 1, *met.Damage["bullet"].Fixed)
	assert.Equal(t, 1, met.Damage["charged_bullet"].PerCharge)
	assert.True(t, met.Damage["fireball"].Kill)
	assert.Equal(t, color.NRGBA{R: 0xf0, G: 0xc0, B: 0x20, A: 0xff}, met.Color.Color)

	megaman, err := LoadEnemySpec("enemies/megaman.yaml")
	require.NoError(t, err)
	assert.Equal(t, "player", megaman.Faction)
	assert.True(t, megaman.Loop.States[2].Manual)
}

func TestLoadProjectileSpec(t *testing.T) {
	useDiskRoot(t, "")

	for _, name := range []string{"pellet", "sniper_shot", "buster", "charged_buster"} {
		spec, err := LoadProjectileSpec(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, spec.Kind)
		assert.Positive(t, spec.Speed)
		assert.Positive(t, spec.TTL)
	}

	charged, err := LoadProjectileSpec("charged_buster")
	require.NoError(t, err)
	assert.Equal(t, 2, charged.Charge)

	names, err := ProjectileNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"buster", "charged_buster", "pellet", "sniper_shot"}, names)

	_, err = LoadProjectileSpec("missing")
	assert.Error(t, err)
}

func TestDamageRuleSpecScalars(t *testing.T) {
	var rules map[string]DamageRuleSpec
	err := yaml.Unmarshal([]byte(`
bullet: 3
spike: kill
ice: IMMUNE
fire: {scale: 2}
`), &rules)
	require.NoError(t, err)

	assert.Equal(t, 3, *rules["bullet"].Fixed)
	assert.True(t, rules["spike"].Kill)
	assert.True(t, rules["ice"].Immune)
	assert.Equal(t, 2.0, rules["fire"].Scale)

	err = yaml.Unmarshal([]byte("bullet: lots"), &rules)
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	type arg struct {
		Projectile string  `yaml:"projectile"`
		Angle      float64 `yaml:"angle"`
	}
	got, err := Decode[arg](map[string]any{"projectile": "pellet", "angle": 30})
	require.NoError(t, err)
	assert.Equal(t, arg{Projectile: "pellet", Angle: 30}, got)

	zero, err := Decode[arg](nil)
	require.NoError(t, err)
	assert.Equal(t, arg{}, zero)
}

func TestDiskOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "enemies"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "enemies", "met.yaml"), []byte(`
name: met
health: 9
loop:
  states:
    - name: idle
      duration: 1
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "enemies", "custom.yaml"), []byte("health: 1\n"), 0o644))
	useDiskRoot(t, dir)

	met, err := LoadEnemySpec("met")
	require.NoError(t, err)
	assert.Equal(t, 9, met.Health)

	custom, err := LoadEnemySpec("custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", custom.Name)

	names, err := EnemyNames()
	require.NoError(t, err)
	assert.Contains(t, names, "custom")
	assert.Contains(t, names, "bat")

	_, ok := ModTime("enemies/met.yaml")
	assert.True(t, ok)
	_, ok = ModTime("enemies/bat.yaml")
	assert.False(t, ok)
}

func TestLoadScript(t *testing.T) {
	useDiskRoot(t, "")

	for _, name := range []string{"bat", "bat.tengo", "scripts/bat.tengo", "prefabs/scripts/bat.tengo"} {
		data, err := LoadScript(name)
		require.NoError(t, err, name)
		assert.Contains(t, string(data), "handlers")
	}
}
