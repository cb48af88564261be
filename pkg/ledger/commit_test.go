/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"context"
	"testing"
	"time"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForCommitValid(t *testing.T) {
	events := &fakeEventService{deliver: true, code: pb.TxValidationCode_VALID}

	waiter, err := WaitForCommit(context.Background(), events, testTxID, time.Second)
	require.NoError(t, err)
	assert.Equal(t, testTxID, waiter.TxID())

	code, err := waiter.Wait()
	require.NoError(t, err)
	assert.Equal(t, pb.TxValidationCode_VALID, code)
	assert.Equal(t, "grpc://localhost:27051", waiter.Source())
	assert.Equal(t, 1, events.unregisterCount())
}

func TestWaitForCommitTimeout(t *testing.T) {
	events := &fakeEventService{}

	waiter, err := WaitForCommit(context.Background(), events, testTxID, 20*time.Millisecond)
	require.NoError(t, err)

	select {
	case <-waiter.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("waiter did not resolve")
	}

	_, err = waiter.Wait()
	assert.Equal(t, CommitTimeout, KindOf(err))
	assert.Contains(t, err.Error(), "didn't receive commit event")
	assert.Equal(t, 1, events.unregisterCount())
}

func TestWaitForCommitCancel(t *testing.T) {
	events := &fakeEventService{}

	waiter, err := WaitForCommit(context.Background(), events, testTxID, time.Minute)
	require.NoError(t, err)

	waiter.Cancel()
	_, err = waiter.Wait()
	assert.Equal(t, CommitTimeout, KindOf(err))
	assert.Contains(t, err.Error(), "commit wait cancelled")
	assert.Equal(t, 1, events.unregisterCount())
}

func TestWaitForCommitInvalid(t *testing.T) {
	events := &fakeEventService{deliver: true, code: pb.TxValidationCode_ENDORSEMENT_POLICY_FAILURE}

	waiter, err := WaitForCommit(context.Background(), events, testTxID, time.Second)
	require.NoError(t, err)

	code, err := waiter.Wait()
	assert.Equal(t, CommitInvalid, KindOf(err))
	assert.Equal(t, pb.TxValidationCode_ENDORSEMENT_POLICY_FAILURE, code)
}

func TestWaitForCommitNoSubscriber(t *testing.T) {
	_, err := WaitForCommit(context.Background(), nil, testTxID, time.Second)
	assert.Error(t, err)
}
