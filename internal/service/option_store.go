package service

import (
	"sync"

	"optionsync/internal/domain"

	"go.uber.org/zap"
)

// echoFingerprint identifies the server echo of a mutation this client made
type echoFingerprint struct {
	voteCount      int64
	supporterCount int64
}

// OptionStore is the in-memory option list of the mounted post. Every writer
// (pagination, realtime, the viewer's own votes) goes through it and the list
// is re-ranked after each mutation.
type OptionStore struct {
	mu         sync.RWMutex
	rc         domain.RankContext
	options    []domain.Option
	nextToken  string
	hasMore    bool
	generation uint64
	echoes     map[int64]echoFingerprint
	listeners  []func([]domain.Option)
	seq        uint64
	logger     *zap.Logger

	notifyMu  sync.Mutex
	delivered uint64
}

// storeChange is a ranked snapshot stamped with the mutation that produced it
type storeChange struct {
	seq     uint64
	options []domain.Option
}

// NewOptionStore creates an empty store ranking for the given viewer context
func NewOptionStore(rc domain.RankContext, logger *zap.Logger) *OptionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OptionStore{
		rc:      rc,
		options: []domain.Option{},
		hasMore: true,
		echoes:  make(map[int64]echoFingerprint),
		logger:  logger,
	}
}

// OnChange registers a callback receiving the ranked list after each mutation.
// Callbacks run one at a time and never see an older list after a newer one.
// They must not mutate the store.
func (s *OptionStore) OnChange(fn func([]domain.Option)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Reset empties the list and cursor. Page results requested before the reset
// are discarded when they arrive.
func (s *OptionStore) Reset() {
	s.mu.Lock()
	s.options = []domain.Option{}
	s.nextToken = ""
	s.hasMore = true
	s.generation++
	s.echoes = make(map[int64]echoFingerprint)
	change := s.changeLocked()
	s.mu.Unlock()

	s.logger.Debug("Option store reset")
	s.notify(change)
}

// SetRankContext swaps the viewer context, e.g. after sign-in, and re-ranks
func (s *OptionStore) SetRankContext(rc domain.RankContext) {
	s.mu.Lock()
	s.rc = rc
	s.options = Rank(s.options, s.rc)
	change := s.changeLocked()
	s.mu.Unlock()

	s.notify(change)
}

// AppendPage merges a fetched page and records the next page token. An empty
// token marks the list as complete.
func (s *OptionStore) AppendPage(options []domain.Option, nextToken string) {
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()
	s.appendPageFor(gen, options, nextToken)
}

// appendPageFor applies a page only if no Reset happened since gen was read
func (s *OptionStore) appendPageFor(gen uint64, options []domain.Option, nextToken string) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("Dropping page fetched before reset",
			zap.Uint64("page_generation", gen))
		return false
	}
	for _, opt := range options {
		s.upsertLocked(opt)
	}
	s.nextToken = nextToken
	s.hasMore = nextToken != ""
	s.options = Rank(s.options, s.rc)
	change := s.changeLocked()
	s.mu.Unlock()

	s.logger.Debug("Page appended",
		zap.Int("page_size", len(options)),
		zap.Int("total", len(change.options)),
		zap.Bool("has_more", nextToken != ""))
	s.notify(change)
	return true
}

// Upsert merges option into the list, appending it when the id is new
func (s *OptionStore) Upsert(option domain.Option) {
	s.mu.Lock()
	s.upsertLocked(option)
	s.options = Rank(s.options, s.rc)
	change := s.changeLocked()
	s.mu.Unlock()

	s.notify(change)
}

// UpsertLocal applies a confirmed mutation made by this viewer and remembers
// it so the matching realtime echo is absorbed
func (s *OptionStore) UpsertLocal(option domain.Option) {
	s.mu.Lock()
	merged := s.upsertLocked(option)
	s.echoes[option.ID] = echoFingerprint{
		voteCount:      merged.VoteCount,
		supporterCount: merged.SupporterCount,
	}
	s.options = Rank(s.options, s.rc)
	change := s.changeLocked()
	s.mu.Unlock()

	s.notify(change)
}

// ApplyRemote merges an option received from the realtime channel. It returns
// false when the event was the echo of a local mutation and was absorbed.
func (s *OptionStore) ApplyRemote(option domain.Option) bool {
	s.mu.Lock()
	if fp, ok := s.echoes[option.ID]; ok &&
		fp.voteCount == option.VoteCount && fp.supporterCount == option.SupporterCount {
		delete(s.echoes, option.ID)
		s.mu.Unlock()
		s.logger.Debug("Absorbed realtime echo of local mutation", zap.Int64("option_id", option.ID))
		return false
	}
	s.upsertLocked(option)
	s.options = Rank(s.options, s.rc)
	change := s.changeLocked()
	s.mu.Unlock()

	s.notify(change)
	return true
}

// Remove deletes the option with the given id. Removing an unknown id is a
// no-op; the return value tells whether anything was removed.
func (s *OptionStore) Remove(optionID int64) bool {
	s.mu.Lock()
	idx := s.indexLocked(optionID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.options = append(s.options[:idx:idx], s.options[idx+1:]...)
	delete(s.echoes, optionID)
	s.options = Rank(s.options, s.rc)
	change := s.changeLocked()
	s.mu.Unlock()

	s.notify(change)
	return true
}

// Options returns a copy of the ranked list
func (s *OptionStore) Options() []domain.Option {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Get returns the option with the given id
func (s *OptionStore) Get(optionID int64) (domain.Option, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(optionID)
	if idx < 0 {
		return domain.Option{}, false
	}
	return s.options[idx].Clone(), true
}

// Len returns the number of options held
func (s *OptionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.options)
}

// NextPageToken returns the cursor for the next page ("" before the first
// page and after the last one)
func (s *OptionStore) NextPageToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextToken
}

// HasMore reports whether another page can be fetched
func (s *OptionStore) HasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasMore
}

// Generation changes on every Reset
func (s *OptionStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// upsertLocked merges field by field and returns the stored result.
// Counters only grow and IsSupportedByMe is sticky: only the viewer sets it,
// so payloads that don't know about the viewer can't clear it.
func (s *OptionStore) upsertLocked(incoming domain.Option) domain.Option {
	idx := s.indexLocked(incoming.ID)
	if idx < 0 {
		added := incoming.Clone()
		added.IsHighest = false
		s.options = append(s.options, added)
		return added
	}

	current := s.options[idx]
	if incoming.VoteCount > current.VoteCount {
		current.VoteCount = incoming.VoteCount
	}
	if incoming.SupporterCount > current.SupporterCount {
		current.SupporterCount = incoming.SupporterCount
	}
	current.IsSupportedByMe = current.IsSupportedByMe || incoming.IsSupportedByMe
	current.IsCreatedBySubscriber = current.IsCreatedBySubscriber || incoming.IsCreatedBySubscriber
	if incoming.Text != "" {
		current.Text = incoming.Text
	}
	if current.Creator == nil && incoming.Creator != nil {
		c := *incoming.Creator
		current.Creator = &c
	}
	if incoming.FirstVoter != nil {
		f := *incoming.FirstVoter
		current.FirstVoter = &f
	}
	s.options[idx] = current
	return current
}

func (s *OptionStore) indexLocked(optionID int64) int {
	for i := range s.options {
		if s.options[i].ID == optionID {
			return i
		}
	}
	return -1
}

func (s *OptionStore) snapshotLocked() []domain.Option {
	out := make([]domain.Option, len(s.options))
	for i, opt := range s.options {
		out[i] = opt.Clone()
	}
	return out
}

func (s *OptionStore) changeLocked() storeChange {
	s.seq++
	return storeChange{seq: s.seq, options: s.snapshotLocked()}
}

// notify delivers change unless a newer one was already delivered
func (s *OptionStore) notify(change storeChange) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if change.seq <= s.delivered {
		s.logger.Debug("Dropping stale option list notification", zap.Uint64("seq", change.seq))
		return
	}
	s.delivered = change.seq

	s.mu.RLock()
	listeners := append([]func([]domain.Option){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(change.options)
	}
}
