package game

import (
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/nightfall/internal/randutil"
)

// Registry owns every active session, keyed by chat group id, plus the
// secondary index from player id to the group they are playing in. The index
// is what routes private night actions, which arrive with no group of their
// own. Sessions in different groups never contend beyond the registry maps.
//
// Lock order is registry before session, never the reverse: session
// operations return an Outcome instead of reaching back into the registry.
type Registry struct {
	baseLogger zerolog.Logger
	logger     zerolog.Logger
	notifier   Notifier
	clock      quartz.Clock
	cfg        Config

	// seeds forks each session its own generator.
	seeds *randutil.Source

	mu          sync.RWMutex
	games       map[string]*Session
	playerGroup map[string]string
}

// Option configures a Registry.
type Option func(*Registry)

// WithConfig overrides the default game parameters.
func WithConfig(cfg Config) Option {
	return func(r *Registry) {
		r.cfg = cfg
	}
}

// WithClock injects the clock used for phase deadlines. Tests pass a quartz
// mock to control deadline firing.
func WithClock(clock quartz.Clock) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// WithSeed seeds the registry's RNG for reproducible role deals.
func WithSeed(seed int64) Option {
	return func(r *Registry) {
		r.seeds = randutil.NewSource(seed)
	}
}

// NewRegistry creates an empty registry. The notifier receives every event
// any session produces; nil means events are discarded.
func NewRegistry(logger zerolog.Logger, notifier Notifier, opts ...Option) *Registry {
	r := &Registry{
		baseLogger:  logger,
		logger:      logger.With().Str("component", "registry").Logger(),
		notifier:    notifier,
		clock:       quartz.NewReal(),
		cfg:         DefaultConfig(),
		games:       make(map[string]*Session),
		playerGroup: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.notifier == nil {
		r.notifier = NopNotifier{}
	}
	if r.seeds == nil {
		r.seeds = randutil.NewSource(time.Now().UnixNano())
	}
	if r.cfg.MinPlayers < MinPlayers {
		r.cfg.MinPlayers = MinPlayers
	}
	return r
}

// NewGame opens a fresh lobby in the group. An existing game in the group,
// started or not, is discarded and its players released from the index.
func (r *Registry) NewGame(group string) {
	s := newSession(group, r.cfg, r.baseLogger, r.notifier, r.clock, r.seeds.Fork(), r.expirePhase)

	r.mu.Lock()
	if old, ok := r.games[group]; ok {
		old.stop()
		for _, p := range old.Players() {
			delete(r.playerGroup, p.ID)
		}
		r.logger.Info().Str("group", group).Msg("replacing existing game")
	}
	r.games[group] = s
	r.mu.Unlock()

	r.logger.Info().Str("group", group).Msg("game created")
	r.emit(NewGameCreatedEvent(group))
}

// Join adds a player to the group's lobby. A player may be in at most one
// game across all groups.
func (r *Registry) Join(group, playerID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.games[group]
	if !ok {
		return ErrNoSuchGame
	}
	if current, ok := r.playerGroup[playerID]; ok {
		if current == group {
			return ErrAlreadyJoined
		}
		return ErrInAnotherGame
	}

	if err := s.Join(Player{ID: playerID, Name: name}); err != nil {
		return err
	}
	r.playerGroup[playerID] = group
	return nil
}

// Begin deals roles in the group's lobby and opens the first night.
func (r *Registry) Begin(group string) error {
	s, err := r.session(group)
	if err != nil {
		return err
	}
	return s.Begin()
}

// StartNight opens the group's next night.
func (r *Registry) StartNight(group string) error {
	s, err := r.session(group)
	if err != nil {
		return err
	}
	return s.StartNight()
}

// SubmitNightAction records a night action for whichever game the player is
// in. Private submissions carry no group, so the player index decides where
// they go; eliminated players fall out of the index and get ErrNotInAnyGame.
func (r *Registry) SubmitNightAction(playerID string, act NightAction) error {
	r.mu.RLock()
	var s *Session
	if group, ok := r.playerGroup[playerID]; ok {
		s = r.games[group]
	}
	r.mu.RUnlock()

	if s == nil {
		return ErrNotInAnyGame
	}
	return s.SubmitNightAction(playerID, act)
}

// EndNight resolves the group's night and opens the day.
func (r *Registry) EndNight(group string) error {
	s, err := r.session(group)
	if err != nil {
		return err
	}
	out, err := s.EndNight()
	r.apply(group, s, out)
	return err
}

// SubmitVote records a day vote in the group. The day concludes
// automatically once every living player has voted.
func (r *Registry) SubmitVote(group, voterID, targetName string) error {
	s, err := r.session(group)
	if err != nil {
		return err
	}
	out, err := s.SubmitVote(voterID, targetName)
	r.apply(group, s, out)
	return err
}

// ListPlayers returns the display names of everyone in the group's game, in
// join order.
func (r *Registry) ListPlayers(group string) ([]string, error) {
	s, err := r.session(group)
	if err != nil {
		return nil, err
	}
	return s.PlayerNames(), nil
}

// Status reports the group's phase, round and living players.
func (r *Registry) Status(group string) (Status, error) {
	s, err := r.session(group)
	if err != nil {
		return Status{}, err
	}
	return s.Status(), nil
}

// GroupOf reports which group the player is currently playing in.
func (r *Registry) GroupOf(playerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	group, ok := r.playerGroup[playerID]
	return group, ok
}

// GameCount returns the number of active sessions.
func (r *Registry) GameCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.games)
}

// Stop silences every session and empties the registry. Used at gateway
// shutdown.
func (r *Registry) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for group, s := range r.games {
		s.stop()
		delete(r.games, group)
	}
	clear(r.playerGroup)
	r.logger.Info().Msg("registry stopped")
}

func (r *Registry) session(group string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.games[group]
	if !ok {
		return nil, ErrNoSuchGame
	}
	return s, nil
}

// apply folds a session outcome back into the registry: eliminated players
// leave the index and a finished game leaves the registry entirely. The
// guard against a replaced session matters because NewGame already released
// the old session's players.
func (r *Registry) apply(group string, s *Session, out Outcome) {
	if len(out.Eliminated) == 0 && !out.Over {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.games[group] != s {
		return
	}
	for _, id := range out.Eliminated {
		delete(r.playerGroup, id)
	}
	if out.Over {
		for _, p := range s.Players() {
			delete(r.playerGroup, p.ID)
		}
		delete(r.games, group)
		r.logger.Info().Str("group", group).Str("winner", out.Winner.String()).Msg("finished game removed")
	}
}

// expirePhase is the deadline callback sessions arm; it runs on the clock's
// timer goroutine.
func (r *Registry) expirePhase(group string, gen uint64) {
	r.mu.RLock()
	s := r.games[group]
	r.mu.RUnlock()

	if s == nil {
		return
	}
	r.apply(group, s, s.forceExpire(gen))
}

func (r *Registry) emit(ev GameEvent) {
	if err := r.notifier.Notify(ev); err != nil {
		r.logger.Warn().Err(err).Str("event", ev.EventType().String()).Msg("event delivery failed")
	}
}
