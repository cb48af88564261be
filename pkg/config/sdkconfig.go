/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"strings"

	sdklogging "github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/core"
	sdkconfig "github.com/hyperledger/fabric-sdk-go/pkg/core/config"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

const (
	networkDocumentVersion = "1.0.0"

	defaultSDKLogLevel = "INFO"
)

// SDKLogLevel returns the SDK name (CRITICAL, ERROR, WARNING, INFO, DEBUG)
// of a configured log level. WARN is accepted as WARNING.
func SDKLogLevel(level string) (string, error) {
	name := strings.ToUpper(strings.TrimSpace(level))
	if name == "WARN" {
		name = "WARNING"
	}
	if _, err := sdklogging.LogLevel(name); err != nil {
		return "", errors.Errorf("logging.level: invalid log level %q", level)
	}
	return name, nil
}

// NetworkDocument is the SDK connection profile derived from the gateway options
type NetworkDocument struct {
	Version       string                         `yaml:"version"`
	Client        ClientSection                  `yaml:"client"`
	Channels      map[string]ChannelSection      `yaml:"channels"`
	Organizations map[string]OrganizationSection `yaml:"organizations"`
	Orderers      map[string]NodeSection         `yaml:"orderers"`
	Peers         map[string]NodeSection         `yaml:"peers"`
}

// ClientSection is the client part of the connection profile
type ClientSection struct {
	Organization string `yaml:"organization"`
	Logging      struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	CryptoConfig    PathSection     `yaml:"cryptoconfig"`
	CredentialStore CredentialStore `yaml:"credentialStore"`
	BCCSP           BCCSPSection    `yaml:"BCCSP"`
}

// CredentialStore is where the SDK keeps user state and keys
type CredentialStore struct {
	Path        string      `yaml:"path"`
	CryptoStore PathSection `yaml:"cryptoStore"`
}

// BCCSPSection selects the software crypto provider
type BCCSPSection struct {
	Security struct {
		Enabled bool `yaml:"enabled"`
		Default struct {
			Provider string `yaml:"provider"`
		} `yaml:"default"`
		HashAlgorithm string `yaml:"hashAlgorithm"`
		SoftVerify    bool   `yaml:"softVerify"`
		Level         int    `yaml:"level"`
	} `yaml:"security"`
}

// ChannelSection lists the orderers and peer roles of a channel
type ChannelSection struct {
	Orderers []string                    `yaml:"orderers"`
	Peers    map[string]ChannelPeerRoles `yaml:"peers"`
}

// ChannelPeerRoles are the roles a peer plays on a channel
type ChannelPeerRoles struct {
	EndorsingPeer  bool `yaml:"endorsingPeer"`
	ChaincodeQuery bool `yaml:"chaincodeQuery"`
	LedgerQuery    bool `yaml:"ledgerQuery"`
	EventSource    bool `yaml:"eventSource"`
}

// OrganizationSection describes the client's organization
type OrganizationSection struct {
	MSPID      string   `yaml:"mspid"`
	CryptoPath string   `yaml:"cryptoPath"`
	Peers      []string `yaml:"peers"`
}

// NodeSection is a peer or orderer entry
type NodeSection struct {
	URL         string                 `yaml:"url"`
	GRPCOptions map[string]interface{} `yaml:"grpcOptions"`
	TLSCACerts  PathSection            `yaml:"tlsCACerts,omitempty"`
}

// PathSection holds a single path
type PathSection struct {
	Path string `yaml:"path,omitempty"`
}

// NewNetworkDocument builds the connection profile for the configured network
func NewNetworkDocument(opts *Options) *NetworkDocument {
	n := opts.Network
	org := strings.ToLower(n.OrgName)

	doc := &NetworkDocument{
		Version: networkDocumentVersion,
		Channels: map[string]ChannelSection{
			n.ChannelID: {
				Orderers: []string{n.Orderer.Name},
				Peers: map[string]ChannelPeerRoles{
					n.Peer.Name: {
						EndorsingPeer:  true,
						ChaincodeQuery: true,
						LedgerQuery:    true,
						EventSource:    true,
					},
				},
			},
		},
		Organizations: map[string]OrganizationSection{
			org: {
				MSPID:      n.MSPID,
				CryptoPath: n.Crypto.MSPDir(),
				Peers:      []string{n.Peer.Name},
			},
		},
		Orderers: map[string]NodeSection{
			n.Orderer.Name: newNodeSection(n.Orderer),
		},
		Peers: map[string]NodeSection{
			n.Peer.Name: newNodeSection(n.Peer),
		},
	}

	doc.Client.Organization = org
	doc.Client.Logging.Level = defaultSDKLogLevel
	if level, err := SDKLogLevel(opts.Logging.Level); err == nil {
		doc.Client.Logging.Level = level
	}
	doc.Client.CryptoConfig.Path = n.Crypto.MSPDir()
	doc.Client.CredentialStore.Path = n.StateStore
	doc.Client.CredentialStore.CryptoStore.Path = n.StateStore
	doc.Client.BCCSP.Security.Enabled = true
	doc.Client.BCCSP.Security.Default.Provider = "SW"
	doc.Client.BCCSP.Security.HashAlgorithm = "SHA2"
	doc.Client.BCCSP.Security.SoftVerify = true
	doc.Client.BCCSP.Security.Level = 256

	return doc
}

func newNodeSection(e Endpoint) NodeSection {
	grpcOptions := map[string]interface{}{
		"allow-insecure": e.IsInsecure(),
		"fail-fast":      false,
	}
	if e.HostnameOverride != "" {
		grpcOptions["ssl-target-name-override"] = e.HostnameOverride
	}
	return NodeSection{
		URL:         e.URL,
		GRPCOptions: grpcOptions,
		TLSCACerts:  PathSection{Path: e.TLSCACert},
	}
}

// Marshal renders the connection profile as YAML
func (d *NetworkDocument) Marshal() ([]byte, error) {
	raw, err := yaml.Marshal(d)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal network document")
	}
	return raw, nil
}

// SDKConfig returns the SDK config provider for the configured network
func SDKConfig(opts *Options) core.ConfigProvider {
	if _, err := SDKLogLevel(opts.Logging.Level); err != nil {
		return func() ([]core.ConfigBackend, error) {
			return nil, err
		}
	}
	raw, err := NewNetworkDocument(opts).Marshal()
	if err != nil {
		return func() ([]core.ConfigBackend, error) {
			return nil, err
		}
	}
	return sdkconfig.FromRaw(raw, "yaml")
}
