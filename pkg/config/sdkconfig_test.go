/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"strings"
	"testing"

	sdklogging "github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v2"
)

func TestNetworkDocument(t *testing.T) {
	opts, err := Load(sampleConfigFile)
	require.NoError(t, err)

	raw, err := NewNetworkDocument(opts).Marshal()
	require.NoError(t, err)

	doc := &NetworkDocument{}
	require.NoError(t, yaml.Unmarshal(raw, doc))

	assert.Equal(t, "org1", doc.Client.Organization)
	assert.Equal(t, "/tmp/fabric-client-stateStore", doc.Client.CredentialStore.Path)
	assert.Equal(t, "SW", doc.Client.BCCSP.Security.Default.Provider)

	org, ok := doc.Organizations["org1"]
	require.True(t, ok)
	assert.Equal(t, "Org1MSP", org.MSPID)
	assert.Equal(t, []string{"peer0.org1.zjucst.com"}, org.Peers)
	assert.Equal(t, opts.Network.Crypto.MSPDir(), org.CryptoPath)

	channel, ok := doc.Channels["assetschannel"]
	require.True(t, ok)
	assert.Equal(t, []string{"orderer.zjucst.com"}, channel.Orderers)
	assert.True(t, channel.Peers["peer0.org1.zjucst.com"].EndorsingPeer)
	assert.True(t, channel.Peers["peer0.org1.zjucst.com"].EventSource)

	peer, ok := doc.Peers["peer0.org1.zjucst.com"]
	require.True(t, ok)
	assert.Equal(t, "grpcs://localhost:27051", peer.URL)
	assert.Equal(t, opts.Network.Peer.TLSCACert, peer.TLSCACerts.Path)
	assert.Equal(t, false, peer.GRPCOptions["allow-insecure"])
	assert.Equal(t, "peer0.org1.zjucst.com", peer.GRPCOptions["ssl-target-name-override"])

	orderer, ok := doc.Orderers["orderer.zjucst.com"]
	require.True(t, ok)
	assert.Equal(t, "grpcs://localhost:7050", orderer.URL)
}

func TestNetworkDocumentInsecure(t *testing.T) {
	opts, err := FromReader(strings.NewReader(minimalConfig), "yaml")
	require.NoError(t, err)

	doc := NewNetworkDocument(opts)
	peer := doc.Peers[opts.Network.Peer.Name]
	assert.Equal(t, true, peer.GRPCOptions["allow-insecure"])
	assert.Empty(t, peer.TLSCACerts.Path)
}

func TestSDKConfig(t *testing.T) {
	opts, err := Load(sampleConfigFile)
	require.NoError(t, err)

	backends, err := SDKConfig(opts)()
	require.NoError(t, err)
	require.NotEmpty(t, backends)

	value, ok := backends[0].Lookup("client.organization")
	require.True(t, ok)
	assert.Equal(t, "org1", value)
}

func TestSDKLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected string
	}{
		{"debug", "DEBUG"},
		{" info ", "INFO"},
		{"warn", "WARNING"},
		{"Warning", "WARNING"},
		{"ERROR", "ERROR"},
		{"critical", "CRITICAL"},
	}
	for _, tc := range tests {
		name, err := SDKLogLevel(tc.level)
		require.NoError(t, err, tc.level)
		assert.Equal(t, tc.expected, name)

		_, err = sdklogging.LogLevel(name)
		assert.NoError(t, err, "SDK rejects %s", name)
	}

	_, err := SDKLogLevel("verbose")
	assert.Error(t, err)
}

func TestSDKConfigLogLevel(t *testing.T) {
	for _, level := range []string{"warn", " info "} {
		opts, err := FromReader(strings.NewReader(minimalConfig+"logging:\n  level: \""+level+"\"\n"), "yaml")
		require.NoError(t, err)

		var backends []core.ConfigBackend
		require.NotPanics(t, func() {
			backends, err = SDKConfig(opts)()
		})
		require.NoError(t, err)

		value, ok := backends[0].Lookup("client.logging.level")
		require.True(t, ok)
		expected, _ := SDKLogLevel(level)
		assert.Equal(t, expected, value)
	}

	opts, err := FromReader(strings.NewReader(minimalConfig), "yaml")
	require.NoError(t, err)
	opts.Logging.Level = "verbose"
	_, err = SDKConfig(opts)()
	assert.Error(t, err)
}
