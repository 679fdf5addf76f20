/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/ufsp-labs/fabric-settlement/pkg/utils/errors"
)

// CmdRoot is the name of the configuration file looked up inside the
// configuration path, without extension.
const CmdRoot = "settlement"

// EnvPrefix is the prefix of the environment variables that override file
// values, e.g. SETTLEMENT_FABRIC_DEFAULTCHANNEL.
const EnvPrefix = "SETTLEMENT"

// Defaults applied when the configuration file leaves them unset.
const (
	DefaultConnectionTimeout  = 30 * time.Second
	DefaultEndorsementTimeout = 300 * time.Second
)

// Fabric holds the ledger-facing configuration of the settlement core.
// DefaultChannel and DefaultChaincode have no fallback; their absence is a
// construction-time error for the invoker.
type Fabric struct {
	// ConnectionProfile is the path to the network connection profile.
	ConnectionProfile string `mapstructure:"connectionProfile"`
	// WalletPath roots the filesystem identity store.
	WalletPath string `mapstructure:"walletPath"`
	// DefaultChannel is the channel the invoker is fixed to.
	DefaultChannel string `mapstructure:"defaultChannel"`
	// DefaultChaincode is the chaincode the invoker is fixed to.
	DefaultChaincode string `mapstructure:"defaultChaincode"`
	// TLSEnabled toggles TLS towards the ledger network.
	TLSEnabled bool `mapstructure:"tlsEnabled"`
	// ConnectionTimeout bounds connection establishment.
	ConnectionTimeout time.Duration `mapstructure:"connectionTimeout"`
	// EndorsementTimeout bounds endorsement collection.
	EndorsementTimeout time.Duration `mapstructure:"endorsementTimeout"`
}

// Provider reads the settlement configuration from a directory holding
// settlement.yaml, with environment overrides.
type Provider struct {
	confPath string
	v        *viper.Viper
}

func NewProvider(confPath string) (*Provider, error) {
	v := viper.New()
	v.SetConfigName(CmdRoot)
	v.AddConfigPath(confPath)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("fabric.connectionTimeout", DefaultConnectionTimeout)
	v.SetDefault("fabric.endorsementTimeout", DefaultEndorsementTimeout)
	v.SetDefault("logging.spec", "info")
	v.SetDefault("logging.format", "")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to load configuration from [%s]", confPath)
	}

	return &Provider{confPath: confPath, v: v}, nil
}

func (p *Provider) GetString(key string) string          { return p.v.GetString(key) }
func (p *Provider) GetBool(key string) bool              { return p.v.GetBool(key) }
func (p *Provider) GetInt(key string) int                { return p.v.GetInt(key) }
func (p *Provider) GetDuration(key string) time.Duration { return p.v.GetDuration(key) }
func (p *Provider) IsSet(key string) bool                { return p.v.IsSet(key) }
func (p *Provider) ConfigFileUsed() string               { return p.v.ConfigFileUsed() }

// GetPath behaves like GetString but translates relative paths to be
// relative to the directory of the configuration file.
func (p *Provider) GetPath(key string) string {
	path := p.v.GetString(key)
	if path == "" {
		return ""
	}
	return translatePath(filepath.Dir(p.v.ConfigFileUsed()), path)
}

// UnmarshalKey decodes the subtree at key into rawVal, parsing durations
// from their string form.
func (p *Provider) UnmarshalKey(key string, rawVal interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result: rawVal,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to build decoder for key [%s]", key)
	}
	if err := decoder.Decode(p.v.Get(key)); err != nil {
		return errors.Wrapf(err, "failed to unmarshal key [%s]", key)
	}
	return nil
}

// Fabric returns the ledger-facing configuration with defaults applied and
// paths translated.
func (p *Provider) Fabric() (Fabric, error) {
	var c Fabric
	if err := p.UnmarshalKey("fabric", &c); err != nil {
		return Fabric{}, err
	}
	if c.ConnectionTimeout <= 0 {
		c.ConnectionTimeout = DefaultConnectionTimeout
	}
	if c.EndorsementTimeout <= 0 {
		c.EndorsementTimeout = DefaultEndorsementTimeout
	}
	base := filepath.Dir(p.v.ConfigFileUsed())
	c.ConnectionProfile = translatePath(base, c.ConnectionProfile)
	c.WalletPath = translatePath(base, c.WalletPath)
	return c, nil
}

func translatePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
