package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/kritsada/procure-agent/agent/contract"
)

// SessionState is the source of truth for one conversation:
// - Turns: append-only history, owned exclusively by the coordinator.
// - Threads: per-action-request state machines (collecting -> drafted -> sent).
// - Drafts: structured side-channel keyed by the agent turn index that rendered
//   the draft, so approval-time re-derivation is a lookup, not a re-parse.
type SessionState struct {
	SessionID string `json:"session_id"`

	Turns []contractx.Turn `json:"turns,omitempty"`

	ActiveThreadID string                `json:"active_thread_id,omitempty"`
	Threads        map[string]*Thread    `json:"threads,omitempty"`
	Drafts         map[int]DraftRecord   `json:"drafts,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

type ThreadStatus string

const (
	ThreadCollecting   ThreadStatus = "collecting"
	ThreadReadyToDraft ThreadStatus = "ready_to_draft"
	ThreadDrafted      ThreadStatus = "drafted"
	ThreadSent         ThreadStatus = "sent"
	ThreadAbandoned    ThreadStatus = "abandoned"
)

// Terminal reports whether no further transition is allowed for the thread.
func (s ThreadStatus) Terminal() bool {
	return s == ThreadSent || s == ThreadAbandoned
}

// Thread is one action request's lifecycle. A new action request after a
// terminal thread starts a fresh thread.
type Thread struct {
	ID             string               `json:"id"`
	Status         ThreadStatus         `json:"status"`
	Fields         contractx.FieldPatch `json:"fields"`
	DraftTurnIndex int                  `json:"draft_turn_index,omitempty"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// DraftRecord preserves the exact recipient, subject, and body that were shown
// to the user. The send instruction must reproduce them character for
// character.
type DraftRecord struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	TurnIndex int    `json:"turn_index"`
}

var (
	ErrNilThreadID       = errors.New("thread id is empty")
	ErrThreadNotFound    = errors.New("thread not found")
	ErrNoActiveThread    = errors.New("no active thread")
	ErrInvalidTransition = errors.New("invalid thread transition")
	ErrNoDraftRecord     = errors.New("no draft record for thread")
)

func NewSessionState(sessionID string, now time.Time) *SessionState {
	return &SessionState{
		SessionID: sessionID,
		Threads:   make(map[string]*Thread, 2),
		Drafts:    make(map[int]DraftRecord, 2),
		UpdatedAt: now.UTC(),
	}
}

func (s *SessionState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// EnsureMaps makes sure Threads and Drafts are initialized after decoding.
func (s *SessionState) EnsureMaps() {
	if s.Threads == nil {
		s.Threads = make(map[string]*Thread, 2)
	}
	if s.Drafts == nil {
		s.Drafts = make(map[int]DraftRecord, 2)
	}
}

// AppendTurn appends one turn to the history and returns it with its index
// assigned. Turns are never mutated in place.
func (s *SessionState) AppendTurn(role contractx.Role, text string, now time.Time) contractx.Turn {
	turn := contractx.Turn{
		Index:     len(s.Turns),
		Role:      role,
		Text:      text,
		Timestamp: now.UTC(),
	}
	s.Turns = append(s.Turns, turn)
	return turn
}

// LastTurn returns the newest turn, if any.
func (s *SessionState) LastTurn() (contractx.Turn, bool) {
	if s == nil || len(s.Turns) == 0 {
		return contractx.Turn{}, false
	}
	return s.Turns[len(s.Turns)-1], true
}

// ActiveThread returns the currently active thread pointer (or nil).
func (s *SessionState) ActiveThread() *Thread {
	if s == nil || s.ActiveThreadID == "" || s.Threads == nil {
		return nil
	}
	return s.Threads[s.ActiveThreadID]
}

func (s *SessionState) GetThread(threadID string) (*Thread, bool) {
	if s == nil || s.Threads == nil {
		return nil, false
	}
	t, ok := s.Threads[threadID]
	return t, ok
}

// StartThread creates a fresh collecting thread and makes it active.
func (s *SessionState) StartThread(threadID string, now time.Time) (*Thread, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, ErrNilThreadID
	}
	s.EnsureMaps()
	if _, exists := s.Threads[threadID]; exists {
		return nil, fmt.Errorf("%w: thread id=%s already exists", ErrInvalidTransition, threadID)
	}
	t := &Thread{
		ID:        threadID,
		Status:    ThreadCollecting,
		UpdatedAt: now.UTC(),
	}
	s.Threads[threadID] = t
	s.ActiveThreadID = threadID
	s.Touch(now)
	return t, nil
}

// Transition moves a thread to next, enforcing the per-thread state machine.
// The only legal paths are:
//
//	collecting -> collecting | ready_to_draft | abandoned
//	ready_to_draft -> drafted
//	drafted -> sent | collecting | abandoned | drafted
//
// drafted -> drafted covers a failed send that leaves the draft retryable.
func (s *SessionState) Transition(threadID string, next ThreadStatus, now time.Time) error {
	t, ok := s.GetThread(threadID)
	if !ok {
		return fmt.Errorf("%w: id=%s", ErrThreadNotFound, threadID)
	}
	if !validTransition(t.Status, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	t.UpdatedAt = now.UTC()
	s.Touch(now)
	return nil
}

func validTransition(from, to ThreadStatus) bool {
	switch from {
	case ThreadCollecting:
		return to == ThreadCollecting || to == ThreadReadyToDraft || to == ThreadAbandoned
	case ThreadReadyToDraft:
		return to == ThreadDrafted
	case ThreadDrafted:
		return to == ThreadSent || to == ThreadCollecting || to == ThreadAbandoned || to == ThreadDrafted
	default:
		return false
	}
}

// RecordDraft stores the side-channel record for a draft rendered at
// turnIndex and marks the thread drafted.
func (s *SessionState) RecordDraft(threadID string, rec DraftRecord, now time.Time) error {
	t, ok := s.GetThread(threadID)
	if !ok {
		return fmt.Errorf("%w: id=%s", ErrThreadNotFound, threadID)
	}
	if t.Status != ThreadReadyToDraft && t.Status != ThreadDrafted {
		return fmt.Errorf("%w: cannot record draft in status=%s", ErrInvalidTransition, t.Status)
	}
	s.EnsureMaps()
	s.Drafts[rec.TurnIndex] = rec
	t.DraftTurnIndex = rec.TurnIndex
	t.Status = ThreadDrafted
	t.UpdatedAt = now.UTC()
	s.Touch(now)
	return nil
}

// PendingDraft returns the draft record of the active thread when that thread
// is drafted and its draft was rendered by the most recent agent turn's
// thread. A sent or abandoned thread has no pending draft.
func (s *SessionState) PendingDraft() (DraftRecord, *Thread, bool) {
	t := s.ActiveThread()
	if t == nil || t.Status != ThreadDrafted {
		return DraftRecord{}, nil, false
	}
	rec, ok := s.Drafts[t.DraftTurnIndex]
	if !ok {
		return DraftRecord{}, nil, false
	}
	return rec, t, true
}

func (s *SessionState) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil session state", contractx.ErrValidation)
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return fmt.Errorf("%w: session id is empty", contractx.ErrValidation)
	}
	for i, turn := range s.Turns {
		if turn.Index != i {
			return fmt.Errorf("%w: turn index=%d stored at position=%d", contractx.ErrValidation, turn.Index, i)
		}
	}
	if s.ActiveThreadID != "" {
		if _, ok := s.Threads[s.ActiveThreadID]; !ok {
			return fmt.Errorf("%w: active_thread_id=%s", ErrThreadNotFound, s.ActiveThreadID)
		}
	}
	for id, t := range s.Threads {
		if t == nil {
			return fmt.Errorf("%w: nil thread id=%s", contractx.ErrValidation, id)
		}
		if t.Status == ThreadDrafted {
			if _, ok := s.Drafts[t.DraftTurnIndex]; !ok {
				return fmt.Errorf("%w: drafted thread id=%s has no draft record", contractx.ErrValidation, id)
			}
		}
	}
	return nil
}
