/*
Copyright the food-gateway authors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ledger

import (
	"context"
	"time"

	pb "github.com/hyperledger/fabric-protos-go/peer"
	"github.com/hyperledger/fabric-sdk-go/pkg/common/providers/fab"
	"github.com/pkg/errors"
)

// DefaultCommitTimeout is how long Invoke waits for the commit event of a transaction.
const DefaultCommitTimeout = 30 * time.Second

// CommitWaiter is a pending commit notification for a single transaction.
// The underlying subscription is released as soon as the waiter resolves,
// whether the event arrived, the timeout expired or the waiter was cancelled.
type CommitWaiter struct {
	txID   string
	cancel context.CancelFunc
	done   chan struct{}

	code   pb.TxValidationCode
	source string
	err    error
}

// WaitForCommit registers for the commit status of txID and returns a waiter
// that resolves within timeout.
func WaitForCommit(ctx context.Context, subscriber TxStatusSubscriber, txID string, timeout time.Duration) (*CommitWaiter, error) {
	if subscriber == nil {
		return nil, errors.New("event service is not available")
	}

	reg, eventch, err := subscriber.RegisterTxStatusEvent(txID)
	if err != nil {
		return nil, errors.Wrap(err, "error registering for TxStatus event")
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	w := &CommitWaiter{
		txID:   txID,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go w.run(waitCtx, subscriber, reg, eventch)

	return w, nil
}

func (w *CommitWaiter) run(ctx context.Context, subscriber TxStatusSubscriber, reg fab.Registration, eventch <-chan *fab.TxStatusEvent) {
	defer close(w.done)
	defer w.cancel()
	defer subscriber.Unregister(reg)

	select {
	case event, ok := <-eventch:
		if !ok || event == nil {
			w.err = NewStatus(MalformedResponse, "commit event stream closed without an event", nil, w.txID)
			return
		}
		w.code = event.TxValidationCode
		w.source = event.SourceURL
		if event.TxValidationCode != pb.TxValidationCode_VALID {
			logger.Errorf("The transaction was invalid, code = %s", event.TxValidationCode)
			w.err = NewStatus(CommitInvalid, "received invalid transaction", nil, w.txID, event.TxValidationCode.String())
			return
		}
		logger.Infof("The transaction [%s] has been committed on peer %s", w.txID, event.SourceURL)
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			w.err = NewStatus(CommitTimeout, "didn't receive commit event", ctx.Err(), w.txID)
		} else {
			w.err = NewStatus(CommitTimeout, "commit wait cancelled", ctx.Err(), w.txID)
		}
	}
}

// TxID returns the transaction the waiter is bound to
func (w *CommitWaiter) TxID() string {
	return w.txID
}

// Done is closed once the waiter has resolved
func (w *CommitWaiter) Done() <-chan struct{} {
	return w.done
}

// Cancel stops waiting and releases the subscription
func (w *CommitWaiter) Cancel() {
	w.cancel()
}

// Wait blocks until the waiter resolves and returns the validation code
// reported by the peer.
func (w *CommitWaiter) Wait() (pb.TxValidationCode, error) {
	<-w.done
	return w.code, w.err
}

// Source returns the URL of the peer that delivered the commit event
func (w *CommitWaiter) Source() string {
	<-w.done
	return w.source
}
