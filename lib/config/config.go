package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Configuration is the deployment profile.
type Configuration struct {
	System struct {
		Hostname string `toml:"hostname" default:"archlinux" validate:"required,hostname"` // Hostname of the deployed system
		Timezone string `toml:"timezone" default:"UTC" validate:"required"`                // Zone name under /usr/share/zoneinfo, e.g. "Europe/Berlin"
		Locale   string `toml:"locale" default:"en_US.UTF-8" validate:"required"`         // Locale generated and set as LANG
		Keymap   string `toml:"keymap" default:"us" validate:"required"`                  // Console keymap written to vconsole.conf
	} `toml:"system"` // Settings applied to the new system after restore

	User struct {
		Username string `toml:"username" default:""` // Primary user. Prompted for when empty
	} `toml:"user"` // Primary user

	Packages struct {
		Base      []string `toml:"base" default:"[\"base\",\"linux\",\"linux-firmware\",\"sudo\"]" validate:"required,min=1,dive,required"` // Packages given to pacstrap
		Extra     []string `toml:"extra" default:"[]" validate:"dive,required"`                                                               // Extra packages given to pacstrap
		AURHelper string   `toml:"aur_helper" default:"yay-bin" validate:"required"`                                                        // AUR package bootstrapped to reinstall foreign packages
		Mirror    string   `toml:"mirror" default:"" validate:"omitempty,url"`                                                              // Mirror written to the new system's mirrorlist. The host's list is kept when empty
	} `toml:"packages"` // Package selection

	Network struct {
		ProbeHost      string `toml:"probe_host" default:"archlinux.org" validate:"required"` // Host which must be reachable before deploying
		ProbeTimeoutMs int    `toml:"probe_timeout_ms" default:"3000" validate:"min=100"`     // Timeout for each reachability probe
	} `toml:"network"` // Network reachability precondition

	Store struct {
		S3Region string `toml:"s3_region" default:"us-east-1" validate:"required"` // AWS region for s3:// snapshot locations
		Upload   string `toml:"upload" default:""`                                 // Optional s3:// URL prefix snapshots are uploaded to
		Snapshot string `toml:"snapshot" default:""`                               // Deploy source used when no location is named on the command line
	} `toml:"store"` // Remote snapshot stores

	Clone struct {
		Profile       string `toml:"profile" default:"/usr/share/archiso/configs/releng" validate:"required"` // archiso profile copied as the base of the image
		EmbedSnapshot bool   `toml:"embed_snapshot" default:"true"`                                         // Embed the latest snapshot in the image
	} `toml:"clone"` // Bootable image builder
}

// Load applies defaults and then overrides them from the TOML file at
// path, if it exists. The result is validated.
func Load(path string) (*Configuration, error) {
	var cfg Configuration
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("decode toml: %w", err)
			}
		}
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Validate(cfg *Configuration) error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// WriteDefault writes a configuration file with every default filled in,
// replacing any existing file at path.
func WriteDefault(path string) error {
	var cfg Configuration
	if err := defaults.Set(&cfg); err != nil {
		return fmt.Errorf("set defaults: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer file.Close()
	encoder := toml.NewEncoder(file)
	encoder.Indent = "    "
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	return nil
}
