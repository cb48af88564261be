/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config loads the gateway options: HTTP server, logging, metrics and
// the network endpoint the gateway talks to.
package config

import (
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperledger/fabric-sdk-go/pkg/util/pathvar"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	cmdRoot = "FOODGW"

	defaultCommitTimeout = 30 * time.Second
)

// Options is the complete gateway configuration. It is loaded once at
// startup and never modified afterwards.
type Options struct {
	Server  Server  `mapstructure:"server"`
	Logging Logging `mapstructure:"logging"`
	Metrics Metrics `mapstructure:"metrics"`
	Network Network `mapstructure:"network"`
}

// Server configures the HTTP listener
type Server struct {
	Address        string        `mapstructure:"address"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	AllowedOrigins []string      `mapstructure:"allowedOrigins"`
	MaxBodyBytes   int64         `mapstructure:"maxBodyBytes"`
}

// Logging configures the log backend
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Metrics configures the prometheus endpoint
type Metrics struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Network describes the identity, channel, chaincode and endpoints used for
// every ledger call.
type Network struct {
	UserID        string        `mapstructure:"userID"`
	OrgName       string        `mapstructure:"orgName"`
	MSPID         string        `mapstructure:"mspID"`
	ChannelID     string        `mapstructure:"channelID"`
	ChaincodeID   string        `mapstructure:"chaincodeID"`
	Peer          Endpoint      `mapstructure:"peer"`
	Orderer       Endpoint      `mapstructure:"orderer"`
	Crypto        Crypto        `mapstructure:"crypto"`
	StateStore    string        `mapstructure:"stateStore"`
	CommitTimeout time.Duration `mapstructure:"commitTimeout"`
}

// Endpoint is a peer or orderer address together with its TLS settings
type Endpoint struct {
	Name             string `mapstructure:"name"`
	URL              string `mapstructure:"url"`
	TLSCACert        string `mapstructure:"tlsCACert"`
	HostnameOverride string `mapstructure:"hostnameOverride"`
}

// Crypto locates the user's private key directory and signed certificate
type Crypto struct {
	PrivateKeyDir string `mapstructure:"privateKeyDir"`
	SignedCert    string `mapstructure:"signedCert"`
}

// MSPDir is the msp directory holding the keystore
func (c Crypto) MSPDir() string {
	return filepath.Dir(filepath.Clean(c.PrivateKeyDir))
}

// IsInsecure returns true unless the endpoint URL has a grpcs:// or https:// scheme
func (e Endpoint) IsInsecure() bool {
	u := strings.ToLower(e.URL)
	return !strings.HasPrefix(u, "grpcs://") && !strings.HasPrefix(u, "https://")
}

// Load reads the options from the named file. Every key may be overridden
// through FOODGW_* environment variables (FOODGW_NETWORK_CHANNELID, ...).
func Load(name string) (*Options, error) {
	v := newViper(cmdRoot)
	if name != "" {
		v.SetConfigFile(name)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "loading config file failed: %s", name)
		}
	}
	return fromViper(v)
}

// FromReader reads the options from in. configType can be "json" or "yaml".
func FromReader(in io.Reader, configType string) (*Options, error) {
	if configType == "" {
		return nil, errors.New("empty config type")
	}
	v := newViper(cmdRoot)
	v.SetConfigType(configType)
	if err := v.ReadConfig(in); err != nil {
		return nil, errors.Wrap(err, "reading config failed")
	}
	return fromViper(v)
}

func newViper(cmdRootPrefix string) *viper.Viper {
	myViper := viper.New()
	myViper.SetEnvPrefix(cmdRootPrefix)
	myViper.AutomaticEnv()
	replacer := strings.NewReplacer(".", "_")
	myViper.SetEnvKeyReplacer(replacer)
	setDefaults(myViper)
	return myViper
}

// setDefaults registers every key so that environment overrides are seen by Unmarshal
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 90*time.Second)
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.maxBodyBytes", 1<<20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("network.userID", "Admin@org1.zjucst.com")
	v.SetDefault("network.orgName", "org1")
	v.SetDefault("network.mspID", "Org1MSP")
	v.SetDefault("network.channelID", "assetschannel")
	v.SetDefault("network.chaincodeID", "assets")
	v.SetDefault("network.peer.name", "")
	v.SetDefault("network.peer.url", "grpc://localhost:27051")
	v.SetDefault("network.peer.tlsCACert", "")
	v.SetDefault("network.peer.hostnameOverride", "peer0.org1.zjucst.com")
	v.SetDefault("network.orderer.name", "")
	v.SetDefault("network.orderer.url", "grpc://localhost:7050")
	v.SetDefault("network.orderer.tlsCACert", "")
	v.SetDefault("network.orderer.hostnameOverride", "orderer.zjucst.com")
	v.SetDefault("network.crypto.privateKeyDir", "")
	v.SetDefault("network.crypto.signedCert", "")
	v.SetDefault("network.stateStore", "/tmp/fabric-client-stateStore")
	v.SetDefault("network.commitTimeout", defaultCommitTimeout)
}

func fromViper(v *viper.Viper) (*Options, error) {
	opts := &Options{}
	err := v.Unmarshal(opts, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode options")
	}

	opts.Network.substPaths()
	opts.Network.Peer.setDefaultName()
	opts.Network.Orderer.setDefaultName()
	if opts.Network.CommitTimeout <= 0 {
		opts.Network.CommitTimeout = defaultCommitTimeout
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

func (n *Network) substPaths() {
	n.Crypto.PrivateKeyDir = subst(n.Crypto.PrivateKeyDir)
	n.Crypto.SignedCert = subst(n.Crypto.SignedCert)
	n.Peer.TLSCACert = subst(n.Peer.TLSCACert)
	n.Orderer.TLSCACert = subst(n.Orderer.TLSCACert)
	n.StateStore = subst(n.StateStore)
}

func subst(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(pathvar.Subst(path))
}

// setDefaultName names the endpoint after its TLS hostname, or the URL host
func (e *Endpoint) setDefaultName() {
	if e.Name != "" {
		return
	}
	if e.HostnameOverride != "" {
		e.Name = e.HostnameOverride
		return
	}
	if u, err := url.Parse(e.URL); err == nil {
		e.Name = u.Hostname()
	}
}

// Validate checks that all required options are present
func (o *Options) Validate() error {
	n := o.Network
	required := []struct {
		key   string
		value string
	}{
		{"network.orgName", n.OrgName},
		{"network.mspID", n.MSPID},
		{"network.channelID", n.ChannelID},
		{"network.chaincodeID", n.ChaincodeID},
		{"network.peer.url", n.Peer.URL},
		{"network.peer.name", n.Peer.Name},
		{"network.orderer.url", n.Orderer.URL},
		{"network.orderer.name", n.Orderer.Name},
		{"network.crypto.privateKeyDir", n.Crypto.PrivateKeyDir},
		{"network.crypto.signedCert", n.Crypto.SignedCert},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.Errorf("%s is required", r.key)
		}
	}

	for _, e := range []Endpoint{n.Peer, n.Orderer} {
		if !e.IsInsecure() && e.TLSCACert == "" {
			return errors.Errorf("tlsCACert is required for TLS endpoint %s", e.URL)
		}
	}

	if o.Server.Address == "" {
		return errors.New("server.address is required")
	}

	if _, err := SDKLogLevel(o.Logging.Level); err != nil {
		return err
	}
	return nil
}
