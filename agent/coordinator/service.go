// Package coordinator is the supervisor in front of the specialists. It owns
// the conversation state, classifies each user turn, synthesizes
// self-contained instructions, and is the single enforcement point for the
// human approval gate: no send leaves the system without an explicit approval
// of a pending draft.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/kritsada/procure-agent/agent/contract"
	nodex "github.com/kritsada/procure-agent/agent/nodes"
	statex "github.com/kritsada/procure-agent/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

type Coordinator struct {
	store      statex.Store
	classifier contractx.Classifier
	informer   contractx.Informer
	purchaser  contractx.Purchaser

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	// sessionLocks serializes turns within a session; turns in different
	// sessions run concurrently. Entries are refcounted and removed once the
	// last holder releases, so idle sessions leave nothing behind.
	locksMu      sync.Mutex
	sessionLocks map[string]*sessionLock

	now func() time.Time
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func New(
	store statex.Store,
	classifier contractx.Classifier,
	informer contractx.Informer,
	purchaser contractx.Purchaser,
) (*Coordinator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if informer == nil {
		return nil, errors.New("informer is required")
	}
	if purchaser == nil {
		return nil, errors.New("purchaser is required")
	}

	c := &Coordinator{
		store:        store,
		classifier:   classifier,
		informer:     informer,
		purchaser:    purchaser,
		sessionLocks: make(map[string]*sessionLock),
		now:          time.Now,
	}

	graphRunner, err := c.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	c.graphRunner = graphRunner

	return c, nil
}

// HandleMessage processes one user turn and returns the agent reply. Calls
// for the same session are processed strictly in arrival order.
func (c *Coordinator) HandleMessage(ctx context.Context, sessionID string, text string) (string, error) {
	unlock := c.lockSession(sessionID)
	defer unlock()

	out, err := c.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

func (c *Coordinator) lockSession(sessionID string) func() {
	c.locksMu.Lock()
	l := c.sessionLocks[sessionID]
	if l == nil {
		l = &sessionLock{}
		c.sessionLocks[sessionID] = l
	}
	l.refs++
	c.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.sessionLocks, sessionID)
		}
		c.locksMu.Unlock()
	}
}
