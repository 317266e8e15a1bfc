package game

import (
	rand "math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
)

// Phase identifies where a session is in the day/night cycle.
type Phase string

// Phase constants for the session lifecycle
const (
	// PhaseLobby is the unstarted state: players may join, nobody is alive.
	PhaseLobby Phase = "lobby"
	// PhaseNight collects private role actions.
	PhaseNight Phase = "night"
	// PhaseDay collects votes from the living.
	PhaseDay Phase = "day"
	// PhaseDusk is a concluded day waiting for the next night to be opened.
	PhaseDusk Phase = "dusk"
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// Config carries the tunable game parameters shared by every session.
type Config struct {
	// MinPlayers is the smallest lobby Begin accepts. Values below the role
	// count are raised to MinPlayers.
	MinPlayers int

	// NightDeadline forces night resolution when it expires, treating
	// missing submissions as no action. Zero waits forever.
	NightDeadline time.Duration

	// DayDeadline forces a tally of the votes cast so far when it expires.
	// Zero waits forever.
	DayDeadline time.Duration
}

// DefaultConfig returns the game parameters used when none are given.
func DefaultConfig() Config {
	return Config{MinPlayers: MinPlayers}
}

// Status is a point-in-time snapshot of a session.
type Status struct {
	Group   string
	Phase   Phase
	Started bool
	Round   int
	Alive   []string // display names in join order
}

// Outcome reports the registry-visible consequences of a session operation:
// which players left the alive set and whether the game ended. The registry
// folds each outcome into its player index.
type Outcome struct {
	Eliminated []string
	Over       bool
	Winner     Faction
}

// Session is the phase machine for one game in one chat group. Sessions are
// created and owned by a Registry; operations are serialized by the session
// mutex. A session never calls back into its registry while locked, it only
// returns Outcomes for the registry to apply.
type Session struct {
	group    string
	logger   zerolog.Logger
	notifier Notifier
	clock    quartz.Clock
	rng      *rand.Rand
	cfg      Config

	// expire is invoked from the deadline timer with the generation that
	// armed it. Nil disables deadlines entirely.
	expire func(group string, gen uint64)

	mu      sync.Mutex
	players []Player
	byID    map[string]int // player id to position in players
	roles   map[string]Role
	alive   map[string]struct{}
	phase   Phase
	started bool
	ended   bool
	round   int
	votes   map[string]string // voter id to target id
	actions map[Role]string   // role slot to target id

	timer    *quartz.Timer
	timerGen uint64
}

func newSession(group string, cfg Config, logger zerolog.Logger, notifier Notifier, clock quartz.Clock, rng *rand.Rand, expire func(string, uint64)) *Session {
	return &Session{
		group:    group,
		logger:   logger.With().Str("component", "session").Str("group", group).Logger(),
		notifier: notifier,
		clock:    clock,
		rng:      rng,
		cfg:      cfg,
		expire:   expire,
		byID:     make(map[string]int),
		roles:    make(map[string]Role),
		alive:    make(map[string]struct{}),
		phase:    PhaseLobby,
		votes:    make(map[string]string),
		actions:  make(map[Role]string),
	}
}

// Group returns the chat group this session belongs to.
func (s *Session) Group() string {
	return s.group
}

// Join adds a player to the lobby.
func (s *Session) Join(p Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return ErrNoSuchGame
	}
	if s.started {
		return ErrAlreadyStarted
	}
	if _, ok := s.byID[p.ID]; ok {
		return ErrAlreadyJoined
	}

	s.byID[p.ID] = len(s.players)
	s.players = append(s.players, p)

	s.logger.Debug().Str("player", p.ID).Str("name", p.Name).Int("count", len(s.players)).Msg("player joined")
	s.emit(NewPlayerJoinedEvent(s.group, p, len(s.players)))
	return nil
}

// Begin deals roles to the lobby and opens the first night.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return ErrNoSuchGame
	}
	if s.started {
		return ErrAlreadyStarted
	}
	if len(s.players) < s.cfg.MinPlayers {
		return ErrInsufficientPlayers
	}

	ids := make([]string, len(s.players))
	for i, p := range s.players {
		ids[i] = p.ID
	}
	roles, err := AssignRoles(ids, s.rng)
	if err != nil {
		return err
	}

	s.roles = roles
	for _, id := range ids {
		s.alive[id] = struct{}{}
	}
	s.started = true

	s.logger.Info().Int("players", len(s.players)).Msg("game started")
	s.emit(NewGameStartedEvent(s.group, len(s.players)))
	for _, p := range s.players {
		s.emit(NewRoleAssignedEvent(s.group, p, s.roles[p.ID]))
	}

	s.beginNight()
	return nil
}

// StartNight opens the next night. It is legal from dusk, and also cuts a
// hung day vote short, discarding the votes cast so far.
func (s *Session) StartNight() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return ErrNoSuchGame
	}
	if s.phase != PhaseDay && s.phase != PhaseDusk {
		return ErrWrongPhase
	}

	s.beginNight()
	return nil
}

// SubmitNightAction records a special role's choice for the current night.
// A resubmission for the same slot overwrites the earlier choice.
func (s *Session) SubmitNightAction(actorID string, act NightAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return ErrNoSuchGame
	}
	if s.phase != PhaseNight {
		return ErrWrongPhase
	}
	if !s.isAlive(actorID) {
		return ErrNotAlive
	}
	if !act.Slot.Acts() || s.roles[actorID] != act.Slot {
		return ErrWrongRole
	}
	if !s.isAlive(act.Target) || !act.Slot.CanTarget(actorID, act.Target) {
		return ErrInvalidTarget
	}

	s.actions[act.Slot] = act.Target
	actor := s.players[s.byID[actorID]]
	target := s.players[s.byID[act.Target]]

	s.logger.Debug().Str("slot", act.Slot.String()).Str("target", act.Target).Int("round", s.round).Msg("night action recorded")
	s.emit(NewNightConfirmedEvent(s.group, actor, act.Slot, target))
	return nil
}

// EndNight resolves the collected night actions and opens the day. Roles
// that never submitted count as taking no action.
func (s *Session) EndNight() (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return Outcome{}, ErrNoSuchGame
	}
	if s.phase != PhaseNight {
		return Outcome{}, ErrWrongPhase
	}

	return s.resolveNight(), nil
}

// SubmitVote records a living player's vote against the named target. The
// name is matched case-insensitively among the living, first match in join
// order. A revote overwrites. The day concludes automatically once every
// living player has voted.
func (s *Session) SubmitVote(voterID, targetName string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return Outcome{}, ErrNoSuchGame
	}
	if s.phase == PhaseNight || s.phase == PhaseDusk {
		return Outcome{}, ErrWrongPhase
	}
	// The lobby phase reaches this far, but nobody is alive in a lobby.
	if !s.isAlive(voterID) {
		return Outcome{}, ErrNotAlive
	}

	target, ok := s.findAlive(targetName)
	if !ok {
		return Outcome{}, ErrNoSuchPlayer
	}

	s.votes[voterID] = target.ID
	voter := s.players[s.byID[voterID]]

	s.logger.Debug().Str("voter", voterID).Str("target", target.ID).Int("cast", len(s.votes)).Msg("vote recorded")
	s.emit(NewVoteRecordedEvent(s.group, voter, target.Name, len(s.votes), len(s.alive)))

	if len(s.votes) < len(s.alive) {
		return Outcome{}, nil
	}
	return s.concludeVote(), nil
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		Group:   s.group,
		Phase:   s.phase,
		Started: s.started,
		Round:   s.round,
		Alive:   s.aliveNames(),
	}
}

// Players returns the players in join order.
func (s *Session) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Player, len(s.players))
	copy(out, s.players)
	return out
}

// PlayerNames returns the display names of everyone in the game, dead or
// alive, in join order.
func (s *Session) PlayerNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.players))
	for i, p := range s.players {
		names[i] = p.Name
	}
	return names
}

// forceExpire resolves the current phase after its deadline lapsed. Timer
// generations that no longer match are stale and ignored.
func (s *Session) forceExpire(gen uint64) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended || gen != s.timerGen {
		return Outcome{}
	}
	s.timer = nil

	switch s.phase {
	case PhaseNight:
		s.logger.Info().Int("round", s.round).Msg("night deadline expired")
		return s.resolveNight()
	case PhaseDay:
		s.logger.Info().Int("votes", len(s.votes)).Msg("day deadline expired")
		return s.concludeVote()
	default:
		return Outcome{}
	}
}

// stop silences the session without announcing anything. Used when the game
// is replaced or the registry shuts down. A stopped session refuses every
// operation with ErrNoSuchGame.
func (s *Session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ended = true
	s.stopTimer()
}

// beginNight opens a night round: resets the action slots and privately
// prompts every living special role with its legal targets. Caller holds the
// session lock.
func (s *Session) beginNight() {
	s.round++
	s.phase = PhaseNight
	s.actions = make(map[Role]string)
	s.votes = make(map[string]string)

	s.logger.Debug().Int("round", s.round).Msg("night started")
	s.emit(NewNightStartedEvent(s.group, s.round))

	for _, p := range s.players {
		if !s.isAlive(p.ID) {
			continue
		}
		role := s.roles[p.ID]
		if !role.Acts() {
			continue
		}
		if targets := s.legalTargets(role, p.ID); len(targets) > 0 {
			s.emit(NewNightPromptEvent(s.group, p, role, targets))
		}
	}

	s.armDeadline(s.cfg.NightDeadline)
}

// resolveNight applies the collected actions, announces the result and opens
// the day. Caller holds the session lock.
func (s *Session) resolveNight() Outcome {
	result := ResolveNight(s.actions, s.roles)
	s.actions = make(map[Role]string)

	var out Outcome
	var victim *Player
	if result.Victim != "" {
		p := s.players[s.byID[result.Victim]]
		victim = &p
		delete(s.alive, result.Victim)
		out.Eliminated = append(out.Eliminated, result.Victim)
		s.logger.Info().Str("victim", result.Victim).Int("round", s.round).Msg("night claimed a victim")
	}

	var reveal *InvestigationReveal
	if result.Investigation != nil {
		p := s.players[s.byID[result.Investigation.Target]]
		reveal = &InvestigationReveal{Target: p, Role: result.Investigation.Role}
	}

	s.emit(NewNightResultEvent(s.group, victim, reveal, s.aliveList()))

	if victim != nil {
		if winner, over := Winner(s.roles, s.alive); over {
			s.endGame(winner, &out)
			return out
		}
	}

	s.phase = PhaseDay
	s.votes = make(map[string]string)
	s.armDeadline(s.cfg.DayDeadline)
	return out
}

// concludeVote tallies the votes cast, announces the result and moves to
// dusk. Caller holds the session lock.
func (s *Session) concludeVote() Outcome {
	result := TallyVotes(s.votes)
	s.votes = make(map[string]string)

	var out Outcome
	var eliminated *Player
	if result.Eliminated != "" {
		p := s.players[s.byID[result.Eliminated]]
		eliminated = &p
		delete(s.alive, result.Eliminated)
		out.Eliminated = append(out.Eliminated, result.Eliminated)
		s.logger.Info().Str("eliminated", result.Eliminated).Int("round", s.round).Msg("vote eliminated a player")
	}

	s.emit(NewVoteResultEvent(s.group, eliminated, result.Tie, s.aliveList()))

	if eliminated != nil {
		if winner, over := Winner(s.roles, s.alive); over {
			s.endGame(winner, &out)
			return out
		}
	}

	s.phase = PhaseDusk
	s.stopTimer()
	return out
}

// endGame announces the winner with a full role reveal and turns the session
// into a tombstone. Caller holds the session lock.
func (s *Session) endGame(winner Faction, out *Outcome) {
	reveal := make([]RoleReveal, len(s.players))
	for i, p := range s.players {
		reveal[i] = RoleReveal{Player: p, Role: s.roles[p.ID]}
	}

	s.logger.Info().Str("winner", winner.String()).Int("round", s.round).Msg("game over")
	s.emit(NewGameEndedEvent(s.group, winner, reveal))

	s.ended = true
	s.stopTimer()
	out.Over = true
	out.Winner = winner
}

// armDeadline schedules a forced end to the current phase. Arming bumps the
// timer generation so a callback from an earlier phase can never touch a
// later one. Caller holds the session lock.
func (s *Session) armDeadline(d time.Duration) {
	s.stopTimer()
	if d <= 0 || s.expire == nil {
		return
	}

	gen := s.timerGen
	group := s.group
	expire := s.expire
	s.timer = s.clock.AfterFunc(d, func() {
		expire(group, gen)
	})
}

// stopTimer cancels any pending deadline and invalidates callbacks already
// in flight. Caller holds the session lock.
func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func (s *Session) isAlive(id string) bool {
	_, ok := s.alive[id]
	return ok
}

// findAlive resolves a display name to a living player, case-insensitively,
// first match in join order.
func (s *Session) findAlive(name string) (Player, bool) {
	for _, p := range s.players {
		if s.isAlive(p.ID) && strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Player{}, false
}

// aliveList returns the living players in join order.
func (s *Session) aliveList() []Player {
	out := make([]Player, 0, len(s.alive))
	for _, p := range s.players {
		if s.isAlive(p.ID) {
			out = append(out, p)
		}
	}
	return out
}

// aliveNames returns the living players' display names in join order.
func (s *Session) aliveNames() []string {
	names := make([]string, 0, len(s.alive))
	for _, p := range s.players {
		if s.isAlive(p.ID) {
			names = append(names, p.Name)
		}
	}
	return names
}

// legalTargets lists the living players the given role may aim at.
func (s *Session) legalTargets(role Role, actorID string) []Player {
	targets := make([]Player, 0, len(s.alive))
	for _, p := range s.players {
		if s.isAlive(p.ID) && role.CanTarget(actorID, p.ID) {
			targets = append(targets, p)
		}
	}
	return targets
}

// emit hands an event to the notifier. Delivery failures are logged and
// never abort the operation that produced the event.
func (s *Session) emit(ev GameEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ev); err != nil {
		s.logger.Warn().Err(err).Str("event", ev.EventType().String()).Msg("event delivery failed")
	}
}
