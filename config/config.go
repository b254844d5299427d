// Package config loads the TOML bootstrap file used by the example server
// and applies it onto a channel.ChannelConfig.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/georgeyanev/sctp-channel/channel"
)

// BootstrapConfig describes the on-disk TOML configuration.
type BootstrapConfig struct {
	Listen listenConf
	Sctp   sctpConf
	Loop   loopConf
}

type listenConf struct {
	Address string
	Backlog int
}

type sctpConf struct {
	Rcvbuf         int  `toml:"rcvbuf"`
	Sndbuf         int  `toml:"sndbuf"`
	Nodelay        bool `toml:"nodelay"`
	InitMaxStreams int  `toml:"init_max_streams"`
}

type loopConf struct {
	SoTimeoutMs    int `toml:"so_timeout_ms"`
	WriteSpinCount int `toml:"write_spin_count"`
}

// Load reads and decodes the TOML file at path.
func Load(path string) (*BootstrapConfig, error) {
	var conf BootstrapConfig
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return nil, fmt.Errorf("%w: %v", channel.ErrConfigIO, err)
	}
	return &conf, nil
}

// Apply writes every configured field into cc's deferred option map via
// SetOption. Zero-valued fields are left at cc's built-in defaults, so a
// partial TOML file only overrides what it names. Apply must run before
// cc.assign, i.e. before the channel it belongs to is connected or the
// listener it belongs to is bound.
func Apply(cfg *BootstrapConfig, cc *channel.ChannelConfig) error {
	if cfg.Sctp.Rcvbuf != 0 {
		if err := cc.SetOption(channel.OptSoRcvbuf, cfg.Sctp.Rcvbuf); err != nil {
			return err
		}
	}
	if cfg.Sctp.Sndbuf != 0 {
		if err := cc.SetOption(channel.OptSoSndbuf, cfg.Sctp.Sndbuf); err != nil {
			return err
		}
	}
	if cfg.Sctp.Nodelay {
		if err := cc.SetOption(channel.OptSctpNodelay, true); err != nil {
			return err
		}
	}
	if cfg.Sctp.InitMaxStreams != 0 {
		if err := cc.SetOption(channel.OptSctpInitMaxstream, cfg.Sctp.InitMaxStreams); err != nil {
			return err
		}
	}
	if cfg.Loop.SoTimeoutMs != 0 {
		if err := cc.SetOption(channel.OptSoTimeoutMs, cfg.Loop.SoTimeoutMs); err != nil {
			return err
		}
	}
	if cfg.Loop.WriteSpinCount != 0 {
		if err := cc.SetOption(channel.OptWriteSpinCount, cfg.Loop.WriteSpinCount); err != nil {
			return err
		}
	}
	return nil
}

// ApplyServer additionally writes the listener-only SO_BACKLOG option onto a
// ServerChannelConfig, on top of everything Apply covers.
func ApplyServer(cfg *BootstrapConfig, cc *channel.ServerChannelConfig) error {
	if err := Apply(cfg, cc.ChannelConfig); err != nil {
		return err
	}
	if cfg.Listen.Backlog != 0 {
		if err := cc.SetOption(channel.OptSoBacklog, cfg.Listen.Backlog); err != nil {
			return err
		}
	}
	return nil
}
