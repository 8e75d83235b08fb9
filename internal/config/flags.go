package config

import "flag"

// Flags are the command-line overrides shared by the commands.
type Flags struct {
	Config  string
	Debug   bool
	LOD     int
	Backend string
}

// Register binds the override flags to fs. LOD defaults to -1, meaning
// "not set".
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.IntVar(&f.LOD, "lod", -1, "Level of detail override")
	fs.StringVar(&f.Backend, "backend", "", "Evaluation backend (cpu|gl)")
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LOD >= 0 {
		cfg.Layout.LOD = f.LOD
	}
	if f.Backend != "" {
		cfg.Render.Backend = f.Backend
	}
}
