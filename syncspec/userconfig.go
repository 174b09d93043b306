package syncspec

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/gryfn-io/rjrssync/common"
)

// UserConfig is the optional ~/.rjrssync.toml local-defaults file
// (SPEC_FULL §6.1, the ambient-stack "persistent local defaults" layer
// the teacher and tonimelisma/onedrive-go both carry): the lowest
// layer of the precedence chain in SPEC_FULL §3.1 above the built-in
// defaults, overridden by everything else. All fields are optional;
// zero values mean "no override from this layer". RemotePort is
// parsed but not applied to anything.
type UserConfig struct {
	RemotePort             uint16 `toml:"remote_port"`
	DestFileNewerBehaviour string `toml:"dest_file_newer_behaviour"`
	DestFileOlderBehaviour string `toml:"dest_file_older_behaviour"`
	FilesSameTimeBehaviour string `toml:"files_same_time_behaviour"`
	DeployBehaviour        string `toml:"deploy_behaviour"`
}

// LoadUserConfig reads path if it exists. A missing file is not an
// error - it just means no defaults layer is applied - but a present,
// malformed file is.
func LoadUserConfig(path string) (*UserConfig, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &UserConfig{}, nil
		}
		return nil, errors.Wrap(err, "stat user config")
	}
	var cfg UserConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing user config")
	}
	return &cfg, nil
}

// DefaultUserConfigPath returns ~/.rjrssync.toml, or "" if the home
// directory can't be determined (in which case the caller should treat
// the defaults layer as simply absent).
func DefaultUserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + string(os.PathSeparator) + ".rjrssync.toml"
}

// ApplyTo merges the config-file layer into b, for every behavior field
// the config file actually set (non-empty string). Used as the second
// layer (after built-in defaults) in the precedence chain.
func (c *UserConfig) ApplyTo(b *Behaviors) error {
	if c == nil {
		return nil
	}
	if c.DestFileNewerBehaviour != "" {
		if err := b.DestFileNewer.Parse(c.DestFileNewerBehaviour); err != nil {
			return errors.Wrap(err, "config dest_file_newer_behaviour")
		}
	}
	if c.DestFileOlderBehaviour != "" {
		if err := b.DestFileOlder.Parse(c.DestFileOlderBehaviour); err != nil {
			return errors.Wrap(err, "config dest_file_older_behaviour")
		}
	}
	if c.FilesSameTimeBehaviour != "" {
		if err := b.FilesSameTime.Parse(c.FilesSameTimeBehaviour); err != nil {
			return errors.Wrap(err, "config files_same_time_behaviour")
		}
	}
	return nil
}

// DeployBehaviourOverride returns the config file's deploy_behaviour,
// if set.
func (c *UserConfig) DeployBehaviourOverride() (common.DeployBehaviour, bool, error) {
	if c == nil || c.DeployBehaviour == "" {
		return 0, false, nil
	}
	var b common.DeployBehaviour
	if err := b.Parse(c.DeployBehaviour); err != nil {
		return 0, false, errors.Wrap(err, "config deploy_behaviour")
	}
	return b, true, nil
}
