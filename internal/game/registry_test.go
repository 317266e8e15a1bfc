package game

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameReplacesExisting(t *testing.T) {
	t.Parallel()

	n := &recordingNotifier{}
	r := NewRegistry(testLogger(), n, WithSeed(1))

	r.NewGame("den")
	require.NoError(t, r.Join("den", "u1", "Alice"))
	require.NoError(t, r.Join("den", "u2", "Bob"))

	r.NewGame("den")

	_, ok := r.GroupOf("u1")
	assert.False(t, ok, "replacement must release the old lobby's players")

	require.NoError(t, r.Join("den", "u1", "Alice"))
	players, err := r.ListPlayers("den")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, players)
}

func TestJoinUnknownGroup(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger(), nil)
	assert.ErrorIs(t, r.Join("nowhere", "u1", "Alice"), ErrNoSuchGame)
}

func TestJoinTwice(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger(), nil)

	r.NewGame("den")
	require.NoError(t, r.Join("den", "u1", "Alice"))
	assert.ErrorIs(t, r.Join("den", "u1", "Alice"), ErrAlreadyJoined)
}

func TestJoinWhileInAnotherGroup(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger(), nil)

	r.NewGame("den")
	r.NewGame("lair")
	require.NoError(t, r.Join("den", "u1", "Alice"))
	assert.ErrorIs(t, r.Join("lair", "u1", "Alice"), ErrInAnotherGame)
}

func TestListPlayersJoinOrder(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger(), nil)

	r.NewGame("den")
	require.NoError(t, r.Join("den", "u3", "Carol"))
	require.NoError(t, r.Join("den", "u1", "Alice"))
	require.NoError(t, r.Join("den", "u2", "Bob"))

	players, err := r.ListPlayers("den")
	require.NoError(t, err)
	assert.Equal(t, []string{"Carol", "Alice", "Bob"}, players)
}

func TestStatusUnknownGroup(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger(), nil)
	_, err := r.Status("nowhere")
	assert.ErrorIs(t, err, ErrNoSuchGame)
}

func TestNightActionRoutedToPlayersOwnGame(t *testing.T) {
	t.Parallel()

	n := &recordingNotifier{}
	r := NewRegistry(testLogger(), n, WithSeed(5))

	g1 := startGame(t, r, n, "den", "Alice", "Bob", "Carol")
	g2 := startGame(t, r, n, "lair", "Xena", "Yuri", "Zoe")

	killer := g1.holder(t, RoleKiller)
	victim := g1.holder(t, RoleProtector)
	require.NoError(t, r.SubmitNightAction(killer, act(RoleKiller, victim)))

	confirmed := n.last(t, EventTypeNightConfirmed).(NightConfirmedEvent)
	assert.Equal(t, "den", confirmed.Group())
	assert.Equal(t, killer, confirmed.Player.ID)

	// Targets in the other game are invisible to this killer.
	assert.ErrorIs(t, r.SubmitNightAction(killer, act(RoleKiller, g2.holder(t, RoleKiller))), ErrInvalidTarget)
}

func TestNightActionFromUnknownPlayer(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger(), nil)
	assert.ErrorIs(t, r.SubmitNightAction("ghost", act(RoleKiller, "anyone")), ErrNotInAnyGame)
}

func TestPlayersReleasedWhenGameEnds(t *testing.T) {
	t.Parallel()

	n := &recordingNotifier{}
	r := NewRegistry(testLogger(), n, WithSeed(1))

	g := startGame(t, r, n, "den", "Alice", "Bob", "Carol")
	killer := g.holder(t, RoleKiller)
	require.NoError(t, r.EndNight("den"))
	for _, id := range g.ids {
		require.NoError(t, r.SubmitVote("den", id, g.names[killer]))
	}

	ended := n.last(t, EventTypeGameEnded).(GameEndedEvent)
	require.Equal(t, FactionGood, ended.Winner)

	r.NewGame("lair")
	assert.NoError(t, r.Join("lair", g.ids[0], "Alice"))
}

func TestGameCountAndStop(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger(), nil)

	r.NewGame("den")
	r.NewGame("lair")
	assert.Equal(t, 2, r.GameCount())

	r.Stop()
	assert.Equal(t, 0, r.GameCount())
	_, err := r.Status("den")
	assert.ErrorIs(t, err, ErrNoSuchGame)
}

func TestMinPlayersRaisedToFloor(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger(), nil, WithConfig(Config{MinPlayers: 1}))

	r.NewGame("den")
	require.NoError(t, r.Join("den", "u1", "Alice"))
	require.NoError(t, r.Join("den", "u2", "Bob"))

	assert.ErrorIs(t, r.Begin("den"), ErrInsufficientPlayers)
}

func TestMinPlayersAboveFloor(t *testing.T) {
	t.Parallel()

	r := NewRegistry(testLogger(), nil, WithSeed(1), WithConfig(Config{MinPlayers: 5}))

	r.NewGame("den")
	for i, name := range []string{"Alice", "Bob", "Carol", "Dave"} {
		require.NoError(t, r.Join("den", testPlayerIDs(4)[i], name))
	}
	assert.ErrorIs(t, r.Begin("den"), ErrInsufficientPlayers)

	require.NoError(t, r.Join("den", "p5", "Erin"))
	assert.NoError(t, r.Begin("den"))
}

func TestNightDeadlineForcesResolution(t *testing.T) {
	mClock := quartz.NewMock(t)
	n := &recordingNotifier{}
	r := NewRegistry(testLogger(), n,
		WithSeed(1),
		WithClock(mClock),
		WithConfig(Config{MinPlayers: 3, NightDeadline: 30 * time.Second}),
	)

	g := startGame(t, r, n, "den", fourNames...)
	killer := g.holder(t, RoleKiller)
	civilian := g.civilians()[0]
	require.NoError(t, r.SubmitNightAction(killer, act(RoleKiller, civilian)))

	// The protector never answers; the deadline treats silence as no action.
	mClock.Advance(30 * time.Second).MustWait(context.Background())

	result := n.last(t, EventTypeNightResult).(NightResultEvent)
	require.NotNil(t, result.Victim)
	assert.Equal(t, civilian, result.Victim.ID)

	st, err := r.Status("den")
	require.NoError(t, err)
	assert.Equal(t, PhaseDay, st.Phase)
}

func TestDayDeadlineTalliesPartialVotes(t *testing.T) {
	mClock := quartz.NewMock(t)
	n := &recordingNotifier{}
	r := NewRegistry(testLogger(), n,
		WithSeed(1),
		WithClock(mClock),
		WithConfig(Config{MinPlayers: 3, NightDeadline: 30 * time.Second, DayDeadline: time.Minute}),
	)

	g := startGame(t, r, n, "den", fourNames...)
	killer := g.holder(t, RoleKiller)
	require.NoError(t, r.EndNight("den"))

	require.NoError(t, r.SubmitVote("den", g.ids[0], g.names[killer]))
	require.NoError(t, r.SubmitVote("den", g.ids[1], g.names[killer]))

	mClock.Advance(time.Minute).MustWait(context.Background())

	result := n.last(t, EventTypeVoteResult).(VoteResultEvent)
	require.NotNil(t, result.Eliminated)
	assert.Equal(t, killer, result.Eliminated.ID)

	ended := n.last(t, EventTypeGameEnded).(GameEndedEvent)
	assert.Equal(t, FactionGood, ended.Winner)
	assert.Equal(t, 0, r.GameCount())
}

func TestExplicitEndNightCancelsDeadline(t *testing.T) {
	mClock := quartz.NewMock(t)
	n := &recordingNotifier{}
	r := NewRegistry(testLogger(), n,
		WithSeed(1),
		WithClock(mClock),
		WithConfig(Config{MinPlayers: 3, NightDeadline: 30 * time.Second}),
	)

	startGame(t, r, n, "den", fourNames...)
	require.NoError(t, r.EndNight("den"))

	mClock.Advance(30 * time.Second).MustWait(context.Background())

	assert.Len(t, n.byType(EventTypeNightResult), 1, "the lapsed deadline must not resolve a second time")
}

func TestStaleDayDeadlineIgnoredAfterStartNight(t *testing.T) {
	mClock := quartz.NewMock(t)
	n := &recordingNotifier{}
	r := NewRegistry(testLogger(), n,
		WithSeed(1),
		WithClock(mClock),
		WithConfig(Config{MinPlayers: 3, DayDeadline: time.Minute}),
	)

	startGame(t, r, n, "den", fourNames...)
	require.NoError(t, r.EndNight("den"))
	require.NoError(t, r.StartNight("den"))

	mClock.Advance(time.Minute).MustWait(context.Background())

	assert.Empty(t, n.byType(EventTypeVoteResult))
	st, err := r.Status("den")
	require.NoError(t, err)
	assert.Equal(t, PhaseNight, st.Phase)
	assert.Equal(t, 2, st.Round)
}

func TestNoDeadlinesByDefault(t *testing.T) {
	mClock := quartz.NewMock(t)
	n := &recordingNotifier{}
	r := NewRegistry(testLogger(), n, WithSeed(1), WithClock(mClock))

	startGame(t, r, n, "den", fourNames...)

	mClock.Advance(24 * time.Hour).MustWait(context.Background())

	assert.Empty(t, n.byType(EventTypeNightResult))
	st, err := r.Status("den")
	require.NoError(t, err)
	assert.Equal(t, PhaseNight, st.Phase)
}
