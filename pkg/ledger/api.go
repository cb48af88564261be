/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ledger submits queries and transactions to the chaincode on behalf of
// the REST gateway.
//
//  Basic Flow:
//  1) Create a Client (NewFabricClient) from the gateway options
//  2) Query for read-only chaincode functions
//  3) Invoke for state-changing chaincode functions
package ledger

import (
	"context"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
)

//go:generate mockgen -destination mockledger/mockledger.gen.go -package mockledger github.com/zjucst/food-gateway/pkg/ledger Client

// Client submits chaincode requests to the ledger.
type Client interface {
	// Query evaluates a read-only chaincode function against one peer.
	Query(ctx context.Context, request Request) (*QueryResult, error)
	// Invoke submits a transaction and waits until it is committed.
	Invoke(ctx context.Context, request Request) (*InvokeResult, error)
}

// Request is a chaincode function call. Args are positional and passed
// to the chaincode in order.
type Request struct {
	Fcn  string
	Args []string
}

func (r Request) byteArgs() [][]byte {
	args := make([][]byte, len(r.Args))
	for i, a := range r.Args {
		args[i] = []byte(a)
	}
	return args
}

// QueryResult is the outcome of a successful query. It is only produced
// when at least one peer returned a payload.
type QueryResult struct {
	TxID      string
	Payload   []byte
	Responses int
}

func (r *QueryResult) String() string {
	return string(r.Payload)
}

// InvokeResult is the outcome of a committed transaction.
type InvokeResult struct {
	TxID           string `json:"txId"`
	Status         string `json:"status"`
	Orderer        string `json:"orderer,omitempty"`
	ValidationCode string `json:"validationCode"`
	Payload        []byte `json:"payload,omitempty"`
}

// TxStatusSubscriber registers for the commit status of a single transaction.
// fab.EventService satisfies it.
type TxStatusSubscriber interface {
	RegisterTxStatusEvent(txID string) (fab.Registration, <-chan *fab.TxStatusEvent, error)
	Unregister(reg fab.Registration)
}

const broadcastSuccess = "SUCCESS"
