/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"context"

	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel"
	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel/invoke"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/msp"
	"github.com/hyperledger/fabric-sdk-go/pkg/fabsdk"
	"github.com/pkg/errors"

	"github.com/zjucst/food-gateway/pkg/config"
	"github.com/zjucst/food-gateway/pkg/identity"
)

// handlerInvoker runs a handler chain against a channel. channel.Client implements it.
type handlerInvoker interface {
	InvokeHandler(handler invoke.Handler, request channel.Request, options ...channel.RequestOption) (channel.Response, error)
}

// signingIdentities hands out a signing identity per call
type signingIdentities interface {
	SigningIdentity() (msp.SigningIdentity, error)
}

// FabricClient is the Client backed by the Fabric SDK. The SDK instance is
// shared, while the signing identity and channel client are created for
// every call.
type FabricClient struct {
	sdk        *fabsdk.FabricSDK
	identities signingIdentities
	network    config.Network
	newChannel func(id msp.SigningIdentity) (handlerInvoker, error)
}

// NewFabricClient creates the SDK from the gateway options
func NewFabricClient(opts *config.Options) (*FabricClient, error) {
	sdk, err := fabsdk.New(config.SDKConfig(opts))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create SDK")
	}

	identities, err := identity.New(sdk.Context(), opts.Network)
	if err != nil {
		sdk.Close()
		return nil, err
	}

	c := &FabricClient{
		sdk:        sdk,
		identities: identities,
		network:    opts.Network,
	}
	c.newChannel = c.sdkChannelClient
	return c, nil
}

// Close frees up caches and connections held by the SDK
func (c *FabricClient) Close() {
	if c.sdk != nil {
		c.sdk.Close()
	}
}

func (c *FabricClient) sdkChannelClient(id msp.SigningIdentity) (handlerInvoker, error) {
	channelProvider := c.sdk.ChannelContext(c.network.ChannelID, fabsdk.WithIdentity(id), fabsdk.WithOrg(c.network.OrgName))
	client, err := channel.New(channelProvider)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create channel client")
	}
	return client, nil
}

func (c *FabricClient) channelClient() (handlerInvoker, error) {
	id, err := c.identities.SigningIdentity()
	if err != nil {
		return nil, NewStatus(IdentityFailed, "failed to create signing identity", err, c.network.UserID)
	}
	client, err := c.newChannel(id)
	if err != nil {
		return nil, NewStatus(IdentityFailed, "failed to create channel context", err, c.network.ChannelID)
	}
	return client, nil
}

func (c *FabricClient) channelRequest(request Request) channel.Request {
	return channel.Request{
		ChaincodeID: c.network.ChaincodeID,
		Fcn:         request.Fcn,
		Args:        request.byteArgs(),
	}
}

func (c *FabricClient) requestOptions(ctx context.Context) []channel.RequestOption {
	return []channel.RequestOption{
		channel.WithTargetEndpoints(c.network.Peer.Name),
		channel.WithParentContext(ctx),
	}
}

// Query evaluates a chaincode function on the configured peer
func (c *FabricClient) Query(ctx context.Context, request Request) (*QueryResult, error) {
	client, err := c.channelClient()
	if err != nil {
		return nil, err
	}

	logger.Debugf("query %s%v on %s", request.Fcn, request.Args, c.network.Peer.Name)

	resp, err := client.InvokeHandler(newQueryHandler(), c.channelRequest(request), c.requestOptions(ctx)...)
	if err != nil {
		return nil, withKind(QueryFailed, "query failed", err)
	}

	return &QueryResult{
		TxID:      string(resp.TransactionID),
		Payload:   resp.Payload,
		Responses: len(resp.Responses),
	}, nil
}

// Invoke endorses a transaction on the configured peer, broadcasts it to the
// orderer and waits for its commit event.
func (c *FabricClient) Invoke(ctx context.Context, request Request) (*InvokeResult, error) {
	client, err := c.channelClient()
	if err != nil {
		return nil, err
	}

	logger.Debugf("invoke %s%v on %s", request.Fcn, request.Args, c.network.Peer.Name)

	commit := newCommitHandler(c.network.CommitTimeout)
	resp, err := client.InvokeHandler(newSubmitHandler(commit), c.channelRequest(request), c.requestOptions(ctx)...)
	if err != nil {
		return nil, withKind(Unknown, "invoke failed", err)
	}

	logger.Infof("transaction [%s] committed with code %s", resp.TransactionID, resp.TxValidationCode)

	return &InvokeResult{
		TxID:           string(resp.TransactionID),
		Status:         broadcastSuccess,
		Orderer:        commit.Orderer(),
		ValidationCode: resp.TxValidationCode.String(),
		Payload:        resp.Payload,
	}, nil
}

// withKind keeps a Status error as is and classifies anything else
func withKind(kind Kind, msg string, err error) error {
	if _, ok := FromError(err); ok {
		return err
	}
	return NewStatus(kind, msg, err)
}
