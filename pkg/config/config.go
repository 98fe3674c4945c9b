// Package config loads program settings from settings.ini (TOML syntax)
// with SMMPBSA_* environment overrides.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/Rufus-willy/s-mmpbsa/pkg/core"
	"github.com/Rufus-willy/s-mmpbsa/pkg/logging"
	"github.com/Rufus-willy/s-mmpbsa/pkg/mm"
	"github.com/Rufus-willy/s-mmpbsa/pkg/mmpbsa"
	"github.com/Rufus-willy/s-mmpbsa/pkg/pbsa"
)

// envPrefix is the environment variable prefix of every setting.
const envPrefix = "SMMPBSA"

// FileName is the settings file looked up by Find.
const FileName = "settings.ini"

// Settings is the decoded settings file.
type Settings struct {
	// RadiusType indexes core.RadiusTypes.
	RadiusType    int     `mapstructure:"radius_type"`
	RadiusDefault float64 `mapstructure:"radius_default"` // Å, for atoms no rule matches
	RCutoff       float64 `mapstructure:"r_cutoff"`       // Å, 0 = no cutoff
	UseDH         bool    `mapstructure:"use_dh"`
	UseTS         bool    `mapstructure:"use_ts"`
	APBSPath      string  `mapstructure:"apbs_path"` // empty skips PB/SA
	NKernels      int     `mapstructure:"n_kernels"`
	DebugMode     bool    `mapstructure:"debug_mode"`
	MaxParallel   int     `mapstructure:"max_parallel_variants"`
	WorkDir       string  `mapstructure:"work_dir"`

	Log logging.Config `mapstructure:",squash"`
	PBE pbsa.PBESet    `mapstructure:"pbe"`
	PBA pbsa.PBASet    `mapstructure:"pba"`

	// Source is the file the settings were read from, empty for defaults.
	Source string `mapstructure:"-"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("radius_type", 3)
	v.SetDefault("radius_default", 1.5)
	v.SetDefault("r_cutoff", 0.0)
	v.SetDefault("use_dh", true)
	v.SetDefault("use_ts", true)
	v.SetDefault("apbs_path", "")
	v.SetDefault("n_kernels", 1)
	v.SetDefault("debug_mode", false)
	v.SetDefault("max_parallel_variants", 1)
	v.SetDefault("work_dir", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")

	pbe := pbsa.DefaultPBESet()
	v.SetDefault("pbe.temp", pbe.Temperature)
	v.SetDefault("pbe.pdie", pbe.PDie)
	v.SetDefault("pbe.sdie", pbe.SDie)
	v.SetDefault("pbe.lpbe", pbe.LPBE)
	v.SetDefault("pbe.bcfl", pbe.Bcfl)
	v.SetDefault("pbe.chgm", pbe.Chgm)
	v.SetDefault("pbe.srfm", pbe.Srfm)
	v.SetDefault("pbe.srad", pbe.Srad)
	v.SetDefault("pbe.swin", pbe.Swin)
	v.SetDefault("pbe.sdens", pbe.Sdens)
	v.SetDefault("pbe.cfac", pbe.Cfac)
	v.SetDefault("pbe.fadd", pbe.Fadd)
	v.SetDefault("pbe.df", pbe.Df)
	ions := make([]map[string]any, len(pbe.Ions))
	for i, ion := range pbe.Ions {
		ions[i] = map[string]any{"charge": ion.Charge, "concentration": ion.Concentration, "radius": ion.Radius}
	}
	v.SetDefault("pbe.ions", ions)

	pba := pbsa.DefaultPBASet()
	v.SetDefault("pba.srfm", pba.Srfm)
	v.SetDefault("pba.srad", pba.Srad)
	v.SetDefault("pba.swin", pba.Swin)
	v.SetDefault("pba.sdens", pba.Sdens)
	v.SetDefault("pba.dpos", pba.Dpos)
	v.SetDefault("pba.gamma", pba.Gamma)
	v.SetDefault("pba.bias", pba.Bias)
}

// Default returns the built-in settings with environment overrides.
func Default() (*Settings, error) {
	return unmarshalAndValidate(newViper(), "")
}

// Load reads the settings file at path. Backslashes are read as forward
// slashes so Windows paths need no escaping.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %q: %w", path, err)
	}
	data = bytes.ReplaceAll(data, []byte(`\`), []byte("/"))

	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("config: failed to parse %q: %w", path, err)
	}
	return unmarshalAndValidate(v, path)
}

// Find returns the settings file in use: settings.ini in the working
// directory, then next to the executable. ok is false when neither exists.
func Find() (path string, ok bool) {
	if isFile(FileName) {
		return FileName, true
	}
	exe, err := os.Executable()
	if err != nil {
		return "", false
	}
	p := filepath.Join(filepath.Dir(exe), FileName)
	if isFile(p) {
		return p, true
	}
	return "", false
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// LoadDefault loads the file reported by Find, or the built-in settings.
func LoadDefault() (*Settings, error) {
	if p, ok := Find(); ok {
		return Load(p)
	}
	return Default()
}

func unmarshalAndValidate(v *viper.Viper, source string) (*Settings, error) {
	s := &Settings{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		yesNoHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(s, hook); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal settings: %w", err)
	}
	s.Source = source

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// yesNoHook accepts the "y"/"n" spelling of switches.
func yesNoHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}
	switch strings.ToLower(strings.TrimSpace(data.(string))) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return data, nil
}

// Validate checks every setting.
func (s *Settings) Validate() error {
	if s.RadiusType < 0 || s.RadiusType >= len(core.RadiusTypes) {
		return &core.ConfigError{Field: "radius_type", Message: fmt.Sprintf("must be 0..%d, got %d", len(core.RadiusTypes)-1, s.RadiusType)}
	}
	if !(s.RadiusDefault > 0) {
		return &core.ConfigError{Field: "radius_default", Message: "must be positive"}
	}
	if s.RCutoff < 0 {
		return &core.ConfigError{Field: "r_cutoff", Message: "must not be negative"}
	}
	if s.NKernels < 1 {
		return &core.ConfigError{Field: "n_kernels", Message: "must be at least 1"}
	}
	if s.MaxParallel < 1 {
		return &core.ConfigError{Field: "max_parallel_variants", Message: "must be at least 1"}
	}
	if _, err := logging.ParseLevel(s.Log.Level); err != nil {
		return &core.ConfigError{Field: "log_level", Message: err.Error()}
	}
	if err := s.PBE.Validate(); err != nil {
		return err
	}
	return s.PBA.Validate()
}

// RadiusModel returns the name of the selected radius model.
func (s *Settings) RadiusModel() string {
	return core.RadiusTypes[s.RadiusType]
}

// Engine returns the engine configuration. radii may be nil.
func (s *Settings) Engine(radii *core.RadiusTable) mmpbsa.Config {
	return mmpbsa.Config{
		Kernel: mm.Options{
			Cutoff:      s.RCutoff,
			DebyeHuckel: s.UseDH,
			Workers:     s.NKernels,
		},
		PBE:         s.PBE,
		PBA:         s.PBA,
		Radii:       radii,
		WorkDir:     s.WorkDir,
		Debug:       s.DebugMode,
		MaxParallel: s.MaxParallel,
	}
}

// Solver returns the APBS runner, or nil when no executable is configured.
func (s *Settings) Solver() pbsa.Solver {
	if s.APBSPath == "" {
		return nil
	}
	return &pbsa.Runner{Exec: s.APBSPath, PBE: s.PBE, PBA: s.PBA, Debug: s.DebugMode}
}
