/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"context"
	"sync"

	"github.com/golang/protobuf/proto"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel"
	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel/invoke"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/msp"
	fcmocks "github.com/hyperledger/fabric-sdk-go/pkg/fab/mocks"
)

const (
	testTxID     = "b1f3e2c0d9"
	testEndorser = "peer0.org1.zjucst.com"
	testOrderer  = "orderer.zjucst.com"
	testCC       = "assets"
)

type fakeHeader struct {
	txID string
}

func (h *fakeHeader) TransactionID() fab.TransactionID { return fab.TransactionID(h.txID) }
func (h *fakeHeader) Creator() []byte                  { return []byte("creator") }
func (h *fakeHeader) Nonce() []byte                    { return []byte("nonce") }
func (h *fakeHeader) ChannelID() string                { return "assetschannel" }

// fakeTransactor endorses with canned responses and records broadcasts
type fakeTransactor struct {
	mutex        sync.Mutex
	responses    []*fab.TransactionProposalResponse
	proposalErr  error
	broadcastErr error
	proposals    int
	broadcasts   int
}

func (f *fakeTransactor) CreateTransactionHeader(opts ...fab.TxnHeaderOpt) (fab.TransactionHeader, error) {
	return &fakeHeader{txID: testTxID}, nil
}

func (f *fakeTransactor) SendTransactionProposal(proposal *fab.TransactionProposal, targets []fab.ProposalProcessor) ([]*fab.TransactionProposalResponse, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.proposals++
	if f.proposalErr != nil {
		return nil, f.proposalErr
	}
	return f.responses, nil
}

func (f *fakeTransactor) CreateTransaction(request fab.TransactionRequest) (*fab.Transaction, error) {
	return &fab.Transaction{Proposal: request.Proposal}, nil
}

func (f *fakeTransactor) SendTransaction(tx *fab.Transaction) (*fab.TransactionResponse, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.broadcasts++
	if f.broadcastErr != nil {
		return nil, f.broadcastErr
	}
	return &fab.TransactionResponse{Orderer: testOrderer}, nil
}

func (f *fakeTransactor) broadcastCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.broadcasts
}

// fakeEventService delivers a single commit event per registration when deliver is set.
// Only the tx status methods are implemented.
type fakeEventService struct {
	fab.EventService

	mutex        sync.Mutex
	deliver      bool
	code         pb.TxValidationCode
	registerErr  error
	registered   []string
	unregistered int
}

func (f *fakeEventService) RegisterTxStatusEvent(txID string) (fab.Registration, <-chan *fab.TxStatusEvent, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.registerErr != nil {
		return nil, nil, f.registerErr
	}
	f.registered = append(f.registered, txID)

	eventch := make(chan *fab.TxStatusEvent, 1)
	if f.deliver {
		eventch <- &fab.TxStatusEvent{TxID: txID, TxValidationCode: f.code, SourceURL: "grpc://localhost:27051"}
	}
	return txID, eventch, nil
}

func (f *fakeEventService) Unregister(reg fab.Registration) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.unregistered++
}

func (f *fakeEventService) unregisterCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.unregistered
}

func newProposalResponse(status int32, payload []byte) *fab.TransactionProposalResponse {
	ext, err := proto.Marshal(&pb.ChaincodeAction{Response: &pb.Response{Status: status, Payload: payload}})
	if err != nil {
		panic(err)
	}
	prp, err := proto.Marshal(&pb.ProposalResponsePayload{Extension: ext})
	if err != nil {
		panic(err)
	}
	return &fab.TransactionProposalResponse{
		Endorser: testEndorser,
		Status:   status,
		ProposalResponse: &pb.ProposalResponse{
			Response:    &pb.Response{Status: status, Payload: payload},
			Payload:     prp,
			Endorsement: &pb.Endorsement{Signature: []byte("signature")},
		},
	}
}

func newRequestContext(fcn string, args ...string) *invoke.RequestContext {
	return &invoke.RequestContext{
		Request: invoke.Request{ChaincodeID: testCC, Fcn: fcn, Args: Request{Args: args}.byteArgs()},
		Opts:    invoke.Opts{Targets: []fab.Peer{fcmocks.NewMockPeer(testEndorser, "grpc://localhost:27051")}},
		Ctx:     context.Background(),
	}
}

// fakeInvoker runs handler chains the way channel.Client does, without the SDK
type fakeInvoker struct {
	transactor *fakeTransactor
	events     *fakeEventService
	requests   []channel.Request
}

func (f *fakeInvoker) InvokeHandler(handler invoke.Handler, request channel.Request, options ...channel.RequestOption) (channel.Response, error) {
	f.requests = append(f.requests, request)

	requestContext := &invoke.RequestContext{
		Request: invoke.Request{ChaincodeID: request.ChaincodeID, Fcn: request.Fcn, Args: request.Args},
		Opts:    invoke.Opts{Targets: []fab.Peer{fcmocks.NewMockPeer(testEndorser, "grpc://localhost:27051")}},
		Ctx:     context.Background(),
	}
	clientContext := &invoke.ClientContext{Transactor: f.transactor, EventService: f.events}

	handler.Handle(requestContext, clientContext)

	r := requestContext.Response
	return channel.Response{
		Payload:          r.Payload,
		TransactionID:    r.TransactionID,
		TxValidationCode: r.TxValidationCode,
		Proposal:         r.Proposal,
		Responses:        r.Responses,
	}, requestContext.Error
}

type fakeIdentities struct {
	err   error
	calls int
}

func (f *fakeIdentities) SigningIdentity() (msp.SigningIdentity, error) {
	f.calls++
	return nil, f.err
}
