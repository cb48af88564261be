/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package identity creates the signing identity used for ledger calls from the
// private key and signed certificate found on local disk.
package identity

import (
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"

	mspclient "github.com/hyperledger/fabric-sdk-go/pkg/client/msp"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/context"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/msp"
	"github.com/pkg/errors"

	"github.com/zjucst/food-gateway/pkg/config"
)

var logger = logging.NewLogger("foodgw/identity")

const privateKeySuffix = "_sk"

// Credentials is the PEM encoded certificate and private key of a user
type Credentials struct {
	MSPID string
	cert  []byte
	key   []byte
}

// Certificate returns the X509 certificate PEM
func (c *Credentials) Certificate() []byte {
	return c.cert
}

// Key returns the private key PEM
func (c *Credentials) Key() []byte {
	return c.key
}

// KeyFilesInDir returns the private key files (suffix _sk) found in dir, sorted by name
func KeyFilesInDir(dir string) ([]string, error) {
	files, err := ioutil.ReadDir(filepath.Clean(dir))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keystore %s", dir)
	}

	var keyFiles []string
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), privateKeySuffix) {
			continue
		}
		keyFiles = append(keyFiles, filepath.Join(dir, file.Name()))
	}
	sort.Strings(keyFiles)

	return keyFiles, nil
}

// LoadCredentials reads the signed certificate and the first private key of the keystore
func LoadCredentials(mspID string, crypto config.Crypto) (*Credentials, error) {
	cert, err := ioutil.ReadFile(filepath.Clean(crypto.SignedCert))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read signed certificate %s", crypto.SignedCert)
	}

	keyFiles, err := KeyFilesInDir(crypto.PrivateKeyDir)
	if err != nil {
		return nil, err
	}
	if len(keyFiles) == 0 {
		return nil, errors.Errorf("no private key (*%s) found in %s", privateKeySuffix, crypto.PrivateKeyDir)
	}

	key, err := ioutil.ReadFile(filepath.Clean(keyFiles[0]))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read private key %s", keyFiles[0])
	}

	return &Credentials{MSPID: mspID, cert: cert, key: key}, nil
}

// SigningIdentityCreator creates signing identities from PEM material.
// The SDK msp client implements it.
type SigningIdentityCreator interface {
	CreateSigningIdentity(opts ...msp.SigningIdentityOption) (msp.SigningIdentity, error)
}

// Provider creates a fresh signing identity for every ledger call
type Provider struct {
	creator SigningIdentityCreator
	userID  string
	mspID   string
	crypto  config.Crypto
}

// New returns a Provider backed by the SDK msp client of the configured organization
func New(clientProvider context.ClientProvider, network config.Network) (*Provider, error) {
	mspClient, err := mspclient.New(clientProvider, mspclient.WithOrg(network.OrgName))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create msp client")
	}
	return NewWithCreator(mspClient, network), nil
}

// NewWithCreator returns a Provider using the given creator
func NewWithCreator(creator SigningIdentityCreator, network config.Network) *Provider {
	return &Provider{
		creator: creator,
		userID:  network.UserID,
		mspID:   network.MSPID,
		crypto:  network.Crypto,
	}
}

// SigningIdentity loads the key material from disk and creates a new signing identity
func (p *Provider) SigningIdentity() (msp.SigningIdentity, error) {
	logger.Debugf("Load privateKey and signedCert for %s", p.userID)

	creds, err := LoadCredentials(p.mspID, p.crypto)
	if err != nil {
		return nil, err
	}

	id, err := p.creator.CreateSigningIdentity(msp.WithCert(creds.Certificate()), msp.WithPrivateKey(creds.Key()))
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to create signing identity for %s", p.userID)
	}
	return id, nil
}
