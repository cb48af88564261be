/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang/protobuf/proto"
	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel/invoke"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"github.com/hyperledger/fabric-sdk-go/pkg/core/logging/api"
	"github.com/hyperledger/fabric-sdk-go/pkg/fab/peer"
	"github.com/hyperledger/fabric-sdk-go/pkg/fab/txn"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const loggerModule = "foodgw/ledger"

var logger api.Logger = logging.NewLogger(loggerModule)

//endorsementHandler sends the transaction proposal to the target peers
type endorsementHandler struct {
	next     invoke.Handler
	failKind Kind
}

//Handle for endorsing transactions
func (e *endorsementHandler) Handle(requestContext *invoke.RequestContext, clientContext *invoke.ClientContext) {
	if len(requestContext.Opts.Targets) == 0 {
		requestContext.Error = NewStatus(e.failKind, "targets were not provided", nil)
		return
	}

	responses, proposal, err := createAndSendTransactionProposal(
		clientContext.Transactor,
		&requestContext.Request,
		peer.PeersToTxnProcessors(requestContext.Opts.Targets),
	)

	if proposal != nil {
		requestContext.Response.Proposal = proposal
		requestContext.Response.TransactionID = proposal.TxnID
		logger.Debugf("Assigning transaction_id: %s", proposal.TxnID)
	}

	if err != nil {
		logger.Errorf("error from proposal [%s]: %s", requestContext.Request.Fcn, err)
		requestContext.Error = NewStatus(e.failKind, "failed to send proposal or receive valid response", err)
		return
	}

	requestContext.Response.Responses = responses
	if len(responses) > 0 {
		if responses[0] == nil {
			requestContext.Error = NewStatus(MalformedResponse, "proposal response is missing", nil)
			return
		}
		payload, err := getResultFromProposalResponse(responses[0].ProposalResponse)
		if err != nil {
			requestContext.Error = NewStatus(MalformedResponse, "unexpected proposal response", err, responses[0].Endorser)
			return
		}
		requestContext.Response.Payload = payload
		requestContext.Response.ChaincodeStatus = responses[0].ChaincodeStatus
	}

	if e.next != nil {
		e.next.Handle(requestContext, clientContext)
	}
}

func getResultFromProposalResponse(proposalResponse *pb.ProposalResponse) ([]byte, error) {
	if proposalResponse == nil {
		return nil, errors.New("proposal response is missing")
	}

	responsePayload := &pb.ProposalResponsePayload{}
	if err := proto.Unmarshal(proposalResponse.GetPayload(), responsePayload); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize proposal response payload")
	}

	chaincodeAction := &pb.ChaincodeAction{}
	if err := proto.Unmarshal(responsePayload.GetExtension(), chaincodeAction); err != nil {
		return nil, errors.Wrap(err, "failed to deserialize chaincode action")
	}

	return chaincodeAction.GetResponse().GetPayload(), nil
}

//queryResultHandler requires at least one query payload
type queryResultHandler struct {
	next invoke.Handler
}

//Handle checks the number of query responses
func (q *queryResultHandler) Handle(requestContext *invoke.RequestContext, clientContext *invoke.ClientContext) {
	count := len(requestContext.Response.Responses)
	if count == 0 {
		logger.Warnf("No payloads were returned from query [%s]", requestContext.Request.Fcn)
		requestContext.Error = NewStatus(EmptyQueryResult, "no payloads were returned from query", nil, requestContext.Request.Fcn)
		return
	}
	logger.Debugf("Query result count = %d", count)

	if q.next != nil {
		q.next.Handle(requestContext, clientContext)
	}
}

//proposalCheckHandler accepts a proposal only if the first endorsement succeeded
type proposalCheckHandler struct {
	next invoke.Handler
}

//Handle validates the first endorsement response
func (p *proposalCheckHandler) Handle(requestContext *invoke.RequestContext, clientContext *invoke.ClientContext) {
	responses := requestContext.Response.Responses
	if len(responses) == 0 || responses[0] == nil || responses[0].ProposalResponse.GetResponse() == nil {
		logger.Errorf("transaction proposal was bad: no endorsement response")
		requestContext.Error = NewStatus(BadProposal, "response null", nil)
		return
	}

	first := responses[0]
	response := first.ProposalResponse.GetResponse()
	if response.Status != http.StatusOK {
		logger.Errorf("transaction proposal was bad: status %d from %s", response.Status, first.Endorser)
		requestContext.Error = NewStatus(BadProposal, fmt.Sprintf("status is not 200: %d %s", response.Status, response.Message), nil,
			first.Endorser, response.Payload)
		return
	}

	logger.Infof("Successfully sent Proposal and received ProposalResponse: Status - %d, message - \"%s\", metadata - \"%s\", endorsement signature: %x",
		response.Status, response.Message, response.Payload, first.ProposalResponse.GetEndorsement().GetSignature())

	if p.next != nil {
		p.next.Handle(requestContext, clientContext)
	}
}

//commitHandler broadcasts the endorsed transaction and waits for its commit event
type commitHandler struct {
	next      invoke.Handler
	timeout   time.Duration
	broadcast *fab.TransactionResponse
}

//Handle handles commit tx
func (c *commitHandler) Handle(requestContext *invoke.RequestContext, clientContext *invoke.ClientContext) {
	txnID := string(requestContext.Response.TransactionID)

	parent := requestContext.Ctx
	if parent == nil {
		parent = context.Background()
	}
	group, ctx := errgroup.WithContext(parent)

	waiter, err := WaitForCommit(ctx, clientContext.EventService, txnID, c.timeout)
	if err != nil {
		requestContext.Error = err
		return
	}

	group.Go(func() error {
		resp, err := createAndSendTransaction(clientContext.Transactor, requestContext.Response.Proposal, requestContext.Response.Responses)
		if err != nil {
			return NewStatus(BroadcastFailed, "failed to send transaction to the ordering service", err, txnID)
		}
		c.broadcast = resp
		return nil
	})
	group.Go(func() error {
		code, err := waiter.Wait()
		requestContext.Response.TxValidationCode = code
		return err
	})

	if err := group.Wait(); err != nil {
		logger.Errorf("Failed to send transaction and get notifications within the timeout period: %s", err)
		requestContext.Error = err
		return
	}
	logger.Debugf("event promise all complete for [%s]", txnID)

	if c.next != nil {
		c.next.Handle(requestContext, clientContext)
	}
}

//Orderer returns the orderer that accepted the broadcast, if any
func (c *commitHandler) Orderer() string {
	if c.broadcast == nil {
		return ""
	}
	return c.broadcast.Orderer
}

//newQueryHandler returns a query handler with chain of endorsementHandler and queryResultHandler
func newQueryHandler(next ...invoke.Handler) invoke.Handler {
	return &endorsementHandler{
		failKind: QueryFailed,
		next:     &queryResultHandler{next: getNext(next)},
	}
}

//newSubmitHandler returns a submit handler with chain of endorsementHandler, proposalCheckHandler and commitHandler
func newSubmitHandler(commit *commitHandler) invoke.Handler {
	return &endorsementHandler{
		failKind: BadProposal,
		next:     &proposalCheckHandler{next: commit},
	}
}

//newCommitHandler returns a handler that commits transaction proposal responses
func newCommitHandler(timeout time.Duration, next ...invoke.Handler) *commitHandler {
	if timeout <= 0 {
		timeout = DefaultCommitTimeout
	}
	return &commitHandler{timeout: timeout, next: getNext(next)}
}

func getNext(next []invoke.Handler) invoke.Handler {
	if len(next) > 0 {
		return next[0]
	}
	return nil
}

func createAndSendTransaction(sender fab.Sender, proposal *fab.TransactionProposal, resps []*fab.TransactionProposalResponse) (*fab.TransactionResponse, error) {
	txnRequest := fab.TransactionRequest{
		Proposal:          proposal,
		ProposalResponses: resps,
	}

	tx, err := sender.CreateTransaction(txnRequest)
	if err != nil {
		return nil, errors.WithMessage(err, "CreateTransaction failed")
	}

	transactionResponse, err := sender.SendTransaction(tx)
	if err != nil {
		return nil, errors.WithMessage(err, "SendTransaction failed")
	}

	return transactionResponse, nil
}

func createAndSendTransactionProposal(transactor fab.ProposalSender, chrequest *invoke.Request, targets []fab.ProposalProcessor) ([]*fab.TransactionProposalResponse, *fab.TransactionProposal, error) {
	request := fab.ChaincodeInvokeRequest{
		ChaincodeID:  chrequest.ChaincodeID,
		Fcn:          chrequest.Fcn,
		Args:         chrequest.Args,
		TransientMap: chrequest.TransientMap,
	}

	txh, err := transactor.CreateTransactionHeader()
	if err != nil {
		return nil, nil, errors.WithMessage(err, "creating transaction header failed")
	}

	proposal, err := txn.CreateChaincodeInvokeProposal(txh, request)
	if err != nil {
		return nil, nil, errors.WithMessage(err, "creating transaction proposal failed")
	}

	responses, err := transactor.SendTransactionProposal(proposal, targets)

	return responses, proposal, err
}
