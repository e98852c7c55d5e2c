// Package toolconfig binds the CLI's own runtime knobs (output directory,
// palette override path, verbosity, render scale) through
// github.com/spf13/viper. This is distinct from the on-ROM configuration
// language (name/start-address/asset manifest) that §1 puts out of scope —
// toolconfig only governs how the CLI itself behaves, grounded in dependency
// on Manu343726-cucaracha/go.mod per SPEC_FULL.md's AMBIENT STACK.
package toolconfig

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the toolchain's resolved CLI-level settings.
type Config struct {
	OutputDir       string
	PaletteOverride string
	Verbosity       string
	RenderScale     int
}

const (
	keyOutputDir       = "output-dir"
	keyPaletteOverride = "palette"
	keyVerbosity       = "verbosity"
	keyRenderScale     = "scale"
)

// BindFlags registers the toolchain's persistent flags on cmd and binds each
// one through v, so Load later resolves flag > environment > config file >
// default in viper's usual precedence order.
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := cmd.PersistentFlags()
	flags.String(keyOutputDir, ".", "directory for assembled ROMs and intermediate artifacts")
	flags.String(keyPaletteOverride, "", "path to a palette file overriding the built-in 16-color palette")
	flags.String(keyVerbosity, "info", "log level: debug, info, warn, error")
	flags.Int(keyRenderScale, 1, "integer scale factor for any rendered output")

	for _, key := range []string{keyOutputDir, keyPaletteOverride, keyVerbosity, keyRenderScale} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			return err
		}
	}
	return nil
}

// Load resolves a Config from v after flags have been parsed.
func Load(v *viper.Viper) Config {
	return Config{
		OutputDir:       v.GetString(keyOutputDir),
		PaletteOverride: v.GetString(keyPaletteOverride),
		Verbosity:       v.GetString(keyVerbosity),
		RenderScale:     v.GetInt(keyRenderScale),
	}
}

// New builds a viper instance configured to also read AYA_-prefixed
// environment variables, e.g. AYA_OUTPUT_DIR.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("aya")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}
