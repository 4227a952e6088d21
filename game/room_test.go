package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu     sync.Mutex
	events []any
}

func (s *fakeSender) Send(event any) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
}

func (s *fakeSender) all() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.events...)
}

func (s *fakeSender) lastGameOver() (GameOverEvent, bool) {
	for _, ev := range s.all() {
		if over, ok := ev.(GameOverEvent); ok {
			return over, true
		}
	}
	return GameOverEvent{}, false
}

type fakeAccounts struct {
	mu         sync.Mutex
	balances   map[uint]float64
	failCredit bool
	debits     int
	credits    int
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{balances: make(map[uint]float64)}
}

func (a *fakeAccounts) GetBalance(_ context.Context, userID uint) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balances[userID], nil
}

func (a *fakeAccounts) DebitStake(_ context.Context, userID uint, amount float64, _ string) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.balances[userID] < amount {
		return a.balances[userID], ErrInsufficientBalance
	}
	a.balances[userID] -= amount
	a.debits++
	return a.balances[userID], nil
}

func (a *fakeAccounts) CreditWin(_ context.Context, userID uint, amount float64, _ string) (float64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failCredit {
		return a.balances[userID], errors.New("account store down")
	}
	a.balances[userID] += amount
	a.credits++
	return a.balances[userID], nil
}

type recordedRound struct {
	stake      int
	history    []int
	winnerID   *uint
	winnerName string
	pattern    Pattern
	payout     float64
}

type fakeRecorder struct {
	rounds chan recordedRound
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{rounds: make(chan recordedRound, 8)}
}

func (r *fakeRecorder) RecordRound(stake int, _ time.Time, history []int, winnerID *uint, winnerName string, pattern Pattern, payout float64) {
	r.rounds <- recordedRound{stake, history, winnerID, winnerName, pattern, payout}
}

func testConfig() Config {
	return Config{
		CountdownSeconds: 2,
		CountdownTick:    time.Millisecond,
		DrawInterval:     time.Millisecond,
		SettleDelay:      time.Millisecond,
		RestartDelay:     time.Millisecond,
		LowestStake:      5,
	}
}

func newTestRoom(t *testing.T, stake int) (*Room, *fakeAccounts, *fakeRecorder) {
	t.Helper()
	accounts := newFakeAccounts()
	recorder := newFakeRecorder()
	room := NewRoom(stake, testConfig(), NewCatalog(), accounts, recorder, zap.NewNop().Sugar())
	return room, accounts, recorder
}

// join wires a session into the room with a funded account and returns
// its sender.
func join(room *Room, accounts *fakeAccounts, sessionID string, userID uint, balance float64) *fakeSender {
	accounts.mu.Lock()
	accounts.balances[userID] = balance
	accounts.mu.Unlock()
	sender := &fakeSender{}
	room.Join(sessionID, userID, "player-"+sessionID, sender)
	return sender
}

// setDrawn forces the room into DRAWING with the given draw history.
func setDrawn(room *Room, history ...int) {
	room.startDrawing()
	room.mu.Lock()
	room.history = append([]int(nil), history...)
	room.mu.Unlock()
}

func TestJoinSendsInitSnapshot(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	sender := join(room, accounts, "s1", 1, 100)

	events := sender.all()
	require.Len(t, events, 1)
	init, ok := events[0].(InitEvent)
	require.True(t, ok)
	assert.Equal(t, EventInit, init.Type)
	assert.Equal(t, 10, init.Room)
	assert.False(t, init.IsGameRunning)
	assert.Equal(t, 2, init.Countdown)
	assert.Empty(t, init.TakenCards)
}

func TestBuyCardSuccess(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	sender := join(room, accounts, "s1", 1, 100)

	require.NoError(t, room.BuyCard(context.Background(), "s1", 3))

	balance, _ := accounts.GetBalance(context.Background(), 1)
	assert.Equal(t, 90.0, balance)
	assert.Equal(t, 1, room.HolderCount())
	assert.Equal(t, []int{3}, room.Snapshot().TakenCards)

	events := sender.all()
	require.Len(t, events, 2)
	buy, ok := events[1].(BuySuccessEvent)
	require.True(t, ok)
	assert.Equal(t, EventBuySuccess, buy.Type)
	assert.Equal(t, 90.0, buy.Balance)
}

func TestBuyCardUnknownID(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	join(room, accounts, "s1", 1, 100)

	err := room.BuyCard(context.Background(), "s1", CatalogSize+1)
	assert.ErrorIs(t, err, ErrCardNotFound)
	assert.Zero(t, room.HolderCount())
}

func TestBuyCardNotInRoom(t *testing.T) {
	room, _, _ := newTestRoom(t, 10)
	err := room.BuyCard(context.Background(), "ghost", 1)
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestBuyCardAlreadyTaken(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	join(room, accounts, "s1", 1, 100)
	join(room, accounts, "s2", 2, 100)

	require.NoError(t, room.BuyCard(context.Background(), "s1", 5))
	err := room.BuyCard(context.Background(), "s2", 5)
	assert.ErrorIs(t, err, ErrCardTaken)

	balance, _ := accounts.GetBalance(context.Background(), 2)
	assert.Equal(t, 100.0, balance, "losing buyer must not be charged")
}

func TestBuyCardClosedWhileDrawing(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	join(room, accounts, "s1", 1, 100)
	room.startDrawing()

	err := room.BuyCard(context.Background(), "s1", 1)
	assert.ErrorIs(t, err, ErrPurchasesClosed)
}

func TestBuyCardDebitFailureReleasesCard(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	join(room, accounts, "s1", 1, 3) // cannot afford the stake
	join(room, accounts, "s2", 2, 100)

	err := room.BuyCard(context.Background(), "s1", 8)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Empty(t, room.Snapshot().TakenCards)

	// The failed reservation must not block other buyers.
	require.NoError(t, room.BuyCard(context.Background(), "s2", 8))
}

func TestBuyCardConcurrentSameCard(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	const buyers = 8
	sessions := make([]string, buyers)
	for i := 0; i < buyers; i++ {
		sessions[i] = string(rune('a' + i))
		join(room, accounts, sessions[i], uint(i+1), 100)
	}

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = room.BuyCard(context.Background(), sessions[i], 42)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrCardTaken)
		}
	}
	assert.Equal(t, 1, wins, "exactly one buyer gets the card")
	assert.Equal(t, 1, accounts.debits)
	assert.Equal(t, []int{42}, room.Snapshot().TakenCards)
}

// gatedAccounts holds every debit until the test feeds the gate,
// keeping a purchase in flight for as long as needed.
type gatedAccounts struct {
	*fakeAccounts
	gate chan error
}

func (a *gatedAccounts) DebitStake(ctx context.Context, userID uint, amount float64, note string) (float64, error) {
	if err := <-a.gate; err != nil {
		return 0, err
	}
	return a.fakeAccounts.DebitStake(ctx, userID, amount, note)
}

func newGatedRoom(stake int) (*Room, *gatedAccounts) {
	gated := &gatedAccounts{fakeAccounts: newFakeAccounts(), gate: make(chan error)}
	room := NewRoom(stake, testConfig(), NewCatalog(), gated, newFakeRecorder(), zap.NewNop().Sugar())
	return room, gated
}

func TestPendingPurchaseIsNotAHolder(t *testing.T) {
	room, gated := newGatedRoom(10)
	join(room, gated.fakeAccounts, "s1", 1, 100)

	done := make(chan error, 1)
	go func() { done <- room.BuyCard(context.Background(), "s1", 7) }()

	// The reservation blocks other buyers before the debit settles,
	// but must not count towards starting a round.
	require.Eventually(t, func() bool {
		taken := room.Snapshot().TakenCards
		return len(taken) == 1 && taken[0] == 7
	}, time.Second, time.Millisecond)
	assert.Zero(t, room.HolderCount())

	gated.gate <- nil
	require.NoError(t, <-done)
	assert.Equal(t, 1, room.HolderCount())
}

func TestInFlightPurchaseNeverStartsARound(t *testing.T) {
	room, gated := newGatedRoom(10)
	join(room, gated.fakeAccounts, "s1", 1, 100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go room.Run(ctx)

	done := make(chan error, 1)
	go func() { done <- room.BuyCard(context.Background(), "s1", 7) }()

	// Hold the debit across several countdown expiries: the bare
	// reservation must never tip the room into DRAWING.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, PhaseCountdown, room.Phase())

	gated.gate <- errors.New("account store down")
	assert.Error(t, <-done)
	assert.Empty(t, room.Snapshot().TakenCards)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, PhaseCountdown, room.Phase(), "rolled-back purchase leaves nothing to play")
}

func TestDrawUniformity(t *testing.T) {
	room, _, _ := newTestRoom(t, 10)
	room.rng = rand.New(rand.NewSource(99))

	const rounds = 15000
	counts := make([]int, BallCount+1)
	for i := 0; i < rounds; i++ {
		room.startDrawing()
		require.False(t, room.drawOnce())
		room.mu.RLock()
		first := room.history[0]
		room.mu.RUnlock()
		counts[first]++
	}

	// Every ball should open about rounds/75 games. The band is wide
	// enough that a uniform draw stays inside it with margin, while a
	// positional or off-by-one bias lands far outside.
	expected := float64(rounds) / BallCount
	for ball := 1; ball <= BallCount; ball++ {
		assert.InDelta(t, expected, float64(counts[ball]), expected*0.4,
			"ball %d opened %d of %d rounds", ball, counts[ball], rounds)
	}
}

func TestClaimOutsideDrawing(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	join(room, accounts, "s1", 1, 100)

	err := room.Claim(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrGameNotRunning)
}

func TestClaimWithoutCard(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	join(room, accounts, "s1", 1, 100)
	setDrawn(room, 1, 2, 3)

	err := room.Claim(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrNoCard)
}

func TestClaimNotAWinner(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	join(room, accounts, "s1", 1, 100)
	require.NoError(t, room.BuyCard(context.Background(), "s1", 1))
	setDrawn(room) // nothing drawn

	err := room.Claim(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrNotWinner)
	assert.Equal(t, PhaseDrawing, room.Phase(), "rejected claim must not stop the game")
}

// winningHistory returns a draw history that completes the card's top
// row.
func winningHistory(card *Card) []int {
	history := make([]int, 0, 5)
	for col := 0; col < 5; col++ {
		history = append(history, card.Cell(col, 0))
	}
	return history
}

func TestClaimWinSettlesAndBroadcasts(t *testing.T) {
	room, accounts, recorder := newTestRoom(t, 10)
	winner := join(room, accounts, "s1", 1, 100)
	other := join(room, accounts, "s2", 2, 100)
	require.NoError(t, room.BuyCard(context.Background(), "s1", 1))
	require.NoError(t, room.BuyCard(context.Background(), "s2", 2))

	card, err := room.catalog.Get(1)
	require.NoError(t, err)
	history := winningHistory(card)
	setDrawn(room, history...)

	require.NoError(t, room.Claim(context.Background(), "s1"))
	assert.Equal(t, PhaseSettling, room.Phase())

	// 10 birr, 2 holders, 80% payout.
	balance, _ := accounts.GetBalance(context.Background(), 1)
	assert.Equal(t, 100.0-10.0+16.0, balance)

	for _, sender := range []*fakeSender{winner, other} {
		over, ok := sender.lastGameOver()
		require.True(t, ok, "GAME_OVER must reach every participant")
		assert.Equal(t, "player-s1", over.Winner)
		assert.Equal(t, 16.0, over.Amount)
		assert.Equal(t, PatternRow, over.Pattern)
		assert.Equal(t, history, over.WinPattern)
		require.NotNil(t, over.WinCard)
		assert.Equal(t, 1, over.WinCard.ID)
	}

	select {
	case round := <-recorder.rounds:
		assert.Equal(t, 10, round.stake)
		assert.Equal(t, history, round.history)
		require.NotNil(t, round.winnerID)
		assert.Equal(t, uint(1), *round.winnerID)
		assert.Equal(t, PatternRow, round.pattern)
		assert.Equal(t, 16.0, round.payout)
	case <-time.After(time.Second):
		t.Fatal("round was never recorded")
	}
}

func TestClaimSettlementFailureIsRetryable(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	sender := join(room, accounts, "s1", 1, 100)
	require.NoError(t, room.BuyCard(context.Background(), "s1", 1))

	card, err := room.catalog.Get(1)
	require.NoError(t, err)
	setDrawn(room, winningHistory(card)...)

	accounts.failCredit = true
	err = room.Claim(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrSettlementFailed)
	assert.Equal(t, PhaseDrawing, room.Phase(), "failed settlement returns the room to DRAWING")

	balance, _ := accounts.GetBalance(context.Background(), 1)
	assert.Equal(t, 90.0, balance, "no partial payout")
	_, sawGameOver := sender.lastGameOver()
	assert.False(t, sawGameOver, "nothing broadcast before settlement commits")

	// The same claim succeeds once the store recovers.
	accounts.failCredit = false
	require.NoError(t, room.Claim(context.Background(), "s1"))
	assert.Equal(t, PhaseSettling, room.Phase())
}

func TestDrawOncePartitionsThePool(t *testing.T) {
	room, _, _ := newTestRoom(t, 10)
	room.startDrawing()

	for i := 0; i < 30; i++ {
		assert.False(t, room.drawOnce())
	}

	room.mu.RLock()
	defer room.mu.RUnlock()
	assert.Len(t, room.history, 30)
	assert.Len(t, room.drawPool, BallCount-30)

	seen := make(map[int]bool, BallCount)
	for _, n := range room.history {
		assert.False(t, seen[n], "ball %d drawn twice", n)
		seen[n] = true
	}
	for _, n := range room.drawPool {
		assert.False(t, seen[n], "ball %d both drawn and pooled", n)
		seen[n] = true
	}
	assert.Len(t, seen, BallCount)
	for n := 1; n <= BallCount; n++ {
		assert.True(t, seen[n], "ball %d lost", n)
	}
}

func TestDrawPoolExhaustionEndsRound(t *testing.T) {
	room, accounts, recorder := newTestRoom(t, 10)
	join(room, accounts, "s1", 1, 100)
	require.NoError(t, room.BuyCard(context.Background(), "s1", 1))
	room.startDrawing()

	for i := 0; i < BallCount; i++ {
		require.False(t, room.drawOnce())
	}
	assert.True(t, room.drawOnce(), "empty pool ends the round")
	assert.Equal(t, PhaseSettling, room.Phase())
	assert.Zero(t, room.HolderCount(), "cards released on a no-winner round")

	select {
	case round := <-recorder.rounds:
		assert.Nil(t, round.winnerID)
		assert.Equal(t, PatternNone, round.pattern)
		assert.Zero(t, round.payout)
		assert.Len(t, round.history, BallCount)
	case <-time.After(time.Second):
		t.Fatal("no-winner round was never recorded")
	}
}

func TestPayoutRates(t *testing.T) {
	assert.Equal(t, 20.0, PrizePool(5, 4))
	assert.Equal(t, 18.0, Payout(5, 4, 5), "lowest tier pays 90%")
	assert.Equal(t, 32.0, Payout(10, 4, 5), "other tiers pay 80%")
	assert.Equal(t, 0.0, Payout(10, 0, 5))
}

func TestRunRestartsCountdownWithoutHolders(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	join(room, accounts, "s1", 1, 100) // present but holds no card

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go room.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, PhaseCountdown, room.Phase(), "no card holders, no game")
}

func TestRunStartsDrawingWithHolder(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	sender := join(room, accounts, "s1", 1, 100)
	require.NoError(t, room.BuyCard(context.Background(), "s1", 1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go room.Run(ctx)

	require.Eventually(t, func() bool {
		for _, ev := range sender.all() {
			if ball, ok := ev.(NewBallEvent); ok && ball.Ball >= 1 && ball.Ball <= BallCount {
				return true
			}
		}
		return false
	}, 2*time.Second, time.Millisecond, "draw loop never produced a ball")
}

func TestLeaveReleasesCardBetweenRounds(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	join(room, accounts, "s1", 1, 100)
	join(room, accounts, "s2", 2, 100)
	require.NoError(t, room.BuyCard(context.Background(), "s1", 9))

	room.Leave("s1")
	assert.Zero(t, room.HolderCount())
	assert.Empty(t, room.Snapshot().TakenCards)

	// The card is purchasable again.
	require.NoError(t, room.BuyCard(context.Background(), "s2", 9))
}

func TestDisconnectDuringDrawKeepsDrawing(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	join(room, accounts, "s1", 1, 100)
	survivor := join(room, accounts, "s2", 2, 100)
	require.NoError(t, room.BuyCard(context.Background(), "s1", 1))
	require.NoError(t, room.BuyCard(context.Background(), "s2", 2))
	room.startDrawing()

	room.Leave("s1")
	assert.Equal(t, PhaseDrawing, room.Phase())
	assert.False(t, room.drawOnce())

	sawBall := false
	for _, ev := range survivor.all() {
		if _, ok := ev.(NewBallEvent); ok {
			sawBall = true
		}
	}
	assert.True(t, sawBall, "remaining players keep receiving balls")
}

func TestStatsEntry(t *testing.T) {
	room, accounts, _ := newTestRoom(t, 10)
	join(room, accounts, "s1", 1, 100)
	require.NoError(t, room.BuyCard(context.Background(), "s1", 4))

	holders, timer, taken, prize := room.StatsEntry()
	assert.Equal(t, 1, holders)
	assert.False(t, timer.Playing)
	assert.Equal(t, []int{4}, taken)
	assert.Equal(t, 8.0, prize)

	room.startDrawing()
	_, timer, _, _ = room.StatsEntry()
	assert.True(t, timer.Playing)
}
