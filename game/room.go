package game

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Phase is a room's lifecycle state.
type Phase string

const (
	PhaseCountdown Phase = "COUNTDOWN"
	PhaseDrawing   Phase = "DRAWING"
	PhaseSettling  Phase = "SETTLING"
)

const (
	BallCount           = 75
	DefaultCountdownSec = 30
	DefaultDrawInterval = 3 * time.Second

	lowTierRate = 0.9
	baseRate    = 0.8
)

// Sender delivers one outbound event to a single connection.
// Delivery is fire-and-forget; a slow receiver must not block the room.
type Sender interface {
	Send(event any)
}

// AccountStore is the external balance service. Each call must apply its
// balance mutation and ledger entry atomically or not at all.
type AccountStore interface {
	GetBalance(ctx context.Context, userID uint) (float64, error)
	DebitStake(ctx context.Context, userID uint, amount float64, note string) (float64, error)
	CreditWin(ctx context.Context, userID uint, amount float64, note string) (float64, error)
}

// RoundRecorder persists a finished round. Calls are made off the game
// goroutines and failures never affect room state.
type RoundRecorder interface {
	RecordRound(stake int, started time.Time, history []int, winnerID *uint, winnerName string, pattern Pattern, payout float64)
}

// Config tunes the room timers. Production uses DefaultConfig; tests
// shrink the intervals.
type Config struct {
	CountdownSeconds int
	CountdownTick    time.Duration
	DrawInterval     time.Duration
	SettleDelay      time.Duration
	RestartDelay     time.Duration
	LowestStake      int
}

func DefaultConfig() Config {
	return Config{
		CountdownSeconds: DefaultCountdownSec,
		CountdownTick:    time.Second,
		DrawInterval:     DefaultDrawInterval,
		SettleDelay:      5 * time.Second,
		RestartDelay:     5 * time.Second,
	}
}

// Participant is a room-scoped player record. Identity and sender are
// fixed at join time; card ownership changes under the room lock.
type Participant struct {
	SessionID string
	UserID    uint
	Name      string
	CardID    int // 0 until a card is purchased
	Card      *Card

	// pending marks a reservation whose debit has not returned yet.
	// The card is unavailable to other buyers but the holder does not
	// count towards starting a round.
	pending bool

	sender Sender
}

// Room owns one stake tier's game state: the ball pool, draw history,
// participant roster and phase timers. All mutation happens under mu;
// broadcasts go out after unlocking.
type Room struct {
	Stake int

	cfg      Config
	catalog  *Catalog
	accounts AccountStore
	recorder RoundRecorder
	onChange func() // global stats recompute, set by the registry
	log      *zap.SugaredLogger

	mu           sync.RWMutex
	phase        Phase
	countdown    int
	drawPool     []int
	history      []int
	participants map[string]*Participant
	drawCancel   chan struct{}
	roundStart   time.Time
	rng          *rand.Rand
}

func NewRoom(stake int, cfg Config, catalog *Catalog, accounts AccountStore, recorder RoundRecorder, log *zap.SugaredLogger) *Room {
	if cfg.CountdownTick <= 0 {
		cfg.CountdownTick = time.Second
	}
	return &Room{
		Stake:        stake,
		cfg:          cfg,
		catalog:      catalog,
		accounts:     accounts,
		recorder:     recorder,
		onChange:     func() {},
		log:          log,
		phase:        PhaseCountdown,
		countdown:    cfg.CountdownSeconds,
		participants: make(map[string]*Participant),
		drawCancel:   make(chan struct{}),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano() ^ int64(stake)<<32)),
	}
}

// -------------------- roster --------------------

// Join adds a connection to the room and replies with the INIT snapshot.
func (r *Room) Join(sessionID string, userID uint, name string, sender Sender) {
	p := &Participant{SessionID: sessionID, UserID: userID, Name: name, sender: sender}

	r.mu.Lock()
	r.participants[sessionID] = p
	snap := r.snapshotLocked()
	total := len(r.participants)
	r.mu.Unlock()

	sender.Send(snap)
	r.log.Infof("[room %d] %s joined (players=%d)", r.Stake, name, total)
	r.onChange()
}

// Leave removes a connection from the room. Any card it held becomes
// available again; an in-flight draw loop is unaffected.
func (r *Room) Leave(sessionID string) {
	r.mu.Lock()
	p, ok := r.participants[sessionID]
	if ok {
		delete(r.participants, sessionID)
	}
	r.mu.Unlock()

	if ok {
		r.log.Infof("[room %d] %s left", r.Stake, p.Name)
		r.onChange()
	}
}

// Snapshot returns the INIT view of the room for a joining connection.
func (r *Room) Snapshot() InitEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Room) snapshotLocked() InitEvent {
	return InitEvent{
		Type:          EventInit,
		Room:          r.Stake,
		History:       append([]int(nil), r.history...),
		IsGameRunning: r.phase == PhaseDrawing,
		Countdown:     r.countdown,
		TakenCards:    r.takenCardsLocked(),
	}
}

func (r *Room) takenCardsLocked() []int {
	taken := make([]int, 0, len(r.participants))
	for _, p := range r.participants {
		if p.CardID != 0 {
			taken = append(taken, p.CardID)
		}
	}
	sort.Ints(taken)
	return taken
}

func (r *Room) holderCountLocked() int {
	n := 0
	for _, p := range r.participants {
		if p.CardID != 0 && !p.pending {
			n++
		}
	}
	return n
}

// HolderCount returns the number of participants holding a settled
// card. In-flight reservations are excluded so the run loop never
// starts a round on a purchase that may still roll back.
func (r *Room) HolderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.holderCountLocked()
}

// Phase returns the room's current lifecycle phase.
func (r *Room) Phase() Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phase
}

// -------------------- purchase --------------------

// BuyCard purchases a catalog card for the session. The card is reserved
// under the room lock before the debit call so two concurrent buyers of
// the same id can never both succeed; a failed debit releases the
// reservation. The reservation stays pending until the debit returns, so
// a countdown expiring mid-purchase cannot start a round on a card that
// then rolls back.
func (r *Room) BuyCard(ctx context.Context, sessionID string, cardID int) error {
	card, err := r.catalog.Get(cardID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	p, ok := r.participants[sessionID]
	if !ok {
		r.mu.Unlock()
		return ErrNotInRoom
	}
	if r.phase != PhaseCountdown {
		r.mu.Unlock()
		return ErrPurchasesClosed
	}
	for _, other := range r.participants {
		if other.CardID == cardID {
			r.mu.Unlock()
			return ErrCardTaken
		}
	}
	prevID, prevCard, prevPending := p.CardID, p.Card, p.pending
	p.CardID, p.Card, p.pending = cardID, card, true
	r.mu.Unlock()

	balance, err := r.accounts.DebitStake(ctx, p.UserID, float64(r.Stake),
		fmt.Sprintf("Card %d, room %d", cardID, r.Stake))
	if err != nil {
		r.mu.Lock()
		if cur, still := r.participants[sessionID]; still && cur.CardID == cardID {
			cur.CardID, cur.Card, cur.pending = prevID, prevCard, prevPending
		}
		r.mu.Unlock()
		r.log.Infof("[room %d] %s could not buy card %d: %v", r.Stake, p.Name, cardID, err)
		return err
	}

	r.mu.Lock()
	if cur, still := r.participants[sessionID]; still && cur.CardID == cardID {
		cur.pending = false
	}
	r.mu.Unlock()

	r.log.Infof("[room %d] %s bought card %d", r.Stake, p.Name, cardID)
	p.sender.Send(BuySuccessEvent{Type: EventBuySuccess, Balance: balance})
	r.onChange()
	return nil
}

// -------------------- claim & settlement --------------------

// Claim validates a bingo claim against the room's authoritative draw
// history and the participant's server-held card. A valid win settles
// the payout before anything is broadcast; if the account store fails,
// the room returns to DRAWING and the claim can be retried.
func (r *Room) Claim(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	if r.phase != PhaseDrawing {
		r.mu.Unlock()
		return ErrGameNotRunning
	}
	p, ok := r.participants[sessionID]
	if !ok {
		r.mu.Unlock()
		return ErrNotInRoom
	}
	if p.Card == nil || p.pending {
		r.mu.Unlock()
		return ErrNoCard
	}

	drawn := make(map[int]bool, len(r.history))
	for _, n := range r.history {
		drawn[n] = true
	}
	pattern := CheckWin(p.Card, drawn)
	if pattern == PatternNone {
		r.mu.Unlock()
		return ErrNotWinner
	}

	r.phase = PhaseSettling
	holders := r.holderCountLocked()
	payout := Payout(r.Stake, holders, r.cfg.LowestStake)
	winnerID, winnerName, winCard := p.UserID, p.Name, p.Card
	history := append([]int(nil), r.history...)
	started := r.roundStart
	r.mu.Unlock()

	if _, err := r.accounts.CreditWin(ctx, winnerID, payout,
		fmt.Sprintf("Win, room %d", r.Stake)); err != nil {
		r.log.Errorf("[room %d] settlement for %s failed: %v", r.Stake, winnerName, err)
		r.mu.Lock()
		if r.phase == PhaseSettling {
			r.phase = PhaseDrawing
		}
		r.mu.Unlock()
		return ErrSettlementFailed
	}

	// Payout committed; stop the draw loop. The run loop handles the
	// grace delay and reset.
	r.mu.Lock()
	close(r.drawCancel)
	r.drawCancel = make(chan struct{})
	r.mu.Unlock()

	r.log.Infof("[room %d] %s wins %.2f (%s, %d holders)", r.Stake, winnerName, payout, pattern, holders)
	r.broadcast(GameOverEvent{
		Type:       EventGameOver,
		Room:       r.Stake,
		Winner:     winnerName,
		Amount:     payout,
		Pattern:    pattern,
		WinCard:    winCard,
		WinPattern: history,
	})
	if r.recorder != nil {
		go r.recorder.RecordRound(r.Stake, started, history, &winnerID, winnerName, pattern, payout)
	}
	r.onChange()
	return nil
}

// PrizePool is the gross pot for a round: stake times card-holders.
func PrizePool(stake, holders int) float64 {
	return float64(stake * holders)
}

// Payout applies the house margin: the lowest stake tier pays out 90%
// of the pool, every other tier 80%. Business rule, keep as is.
func Payout(stake, holders, lowestStake int) float64 {
	pool := PrizePool(stake, holders)
	if stake == lowestStake {
		return pool * lowTierRate
	}
	return pool * baseRate
}

// -------------------- lifecycle --------------------

// Run drives the room's countdown/draw/reset cycle until ctx is
// cancelled. One goroutine per room; it is the only owner of the timers.
func (r *Room) Run(ctx context.Context) {
	for {
		if !r.runCountdown(ctx) {
			return
		}
		if r.HolderCount() == 0 {
			// Nobody bought in; restart the countdown.
			continue
		}
		r.startDrawing()
		won, ok := r.drawLoop(ctx)
		if !ok {
			return
		}
		delay := r.cfg.RestartDelay
		if won {
			delay = r.cfg.SettleDelay
		}
		if !sleepCtx(ctx, delay) {
			return
		}
		r.resetRound()
	}
}

// runCountdown ticks the countdown to zero, broadcasting every second.
// Returns false only on ctx cancellation.
func (r *Room) runCountdown(ctx context.Context) bool {
	r.mu.Lock()
	r.phase = PhaseCountdown
	r.countdown = r.cfg.CountdownSeconds
	r.mu.Unlock()
	r.onChange()

	ticker := time.NewTicker(r.cfg.CountdownTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			r.mu.Lock()
			r.countdown--
			v := r.countdown
			r.mu.Unlock()
			r.broadcast(CountdownEvent{Type: EventCountdown, Room: r.Stake, Value: v})
			r.onChange()
			if v <= 0 {
				return true
			}
		}
	}
}

// startDrawing resets the ball pool and history and enters DRAWING.
func (r *Room) startDrawing() {
	r.mu.Lock()
	r.phase = PhaseDrawing
	r.drawPool = make([]int, BallCount)
	for i := range r.drawPool {
		r.drawPool[i] = i + 1
	}
	r.history = make([]int, 0, BallCount)
	r.drawCancel = make(chan struct{})
	r.roundStart = time.Now()
	r.mu.Unlock()

	r.log.Infof("[room %d] game started with %d card holders", r.Stake, r.HolderCount())
	r.broadcast(GameStartEvent{Type: EventGameStart, Room: r.Stake, Message: "game started"})
	r.onChange()
}

// drawLoop draws on the fixed cadence until a settlement cancels it or
// the pool exhausts. won reports a settled win; ok is false only on ctx
// cancellation.
func (r *Room) drawLoop(ctx context.Context) (won, ok bool) {
	r.mu.RLock()
	cancel := r.drawCancel
	r.mu.RUnlock()

	ticker := time.NewTicker(r.cfg.DrawInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false, false
		case <-cancel:
			return true, true
		case <-ticker.C:
			if exhausted := r.drawOnce(); exhausted {
				return false, true
			}
		}
	}
}

// drawOnce removes one uniformly random ball from the pool and
// broadcasts it. When the pool is empty it ends the round without a
// winner. Ticks landing outside DRAWING (a claim being settled) are
// skipped.
func (r *Room) drawOnce() (exhausted bool) {
	r.mu.Lock()
	if r.phase != PhaseDrawing {
		r.mu.Unlock()
		return false
	}
	if len(r.drawPool) == 0 {
		r.phase = PhaseSettling
		for _, p := range r.participants {
			p.CardID, p.Card, p.pending = 0, nil, false
		}
		history := append([]int(nil), r.history...)
		started := r.roundStart
		r.mu.Unlock()

		r.log.Infof("[room %d] pool exhausted, no winner", r.Stake)
		if r.recorder != nil {
			go r.recorder.RecordRound(r.Stake, started, history, nil, "", PatternNone, 0)
		}
		r.onChange()
		return true
	}

	i := r.rng.Intn(len(r.drawPool))
	ball := r.drawPool[i]
	r.drawPool = append(r.drawPool[:i], r.drawPool[i+1:]...)
	r.history = append(r.history, ball)
	history := append([]int(nil), r.history...)
	r.mu.Unlock()

	r.broadcast(NewBallEvent{Type: EventNewBall, Room: r.Stake, Ball: ball, History: history})
	return false
}

// resetRound clears card ownership and returns the room to COUNTDOWN.
func (r *Room) resetRound() {
	r.mu.Lock()
	for _, p := range r.participants {
		p.CardID, p.Card, p.pending = 0, nil, false
	}
	r.phase = PhaseCountdown
	r.countdown = r.cfg.CountdownSeconds
	r.history = nil
	r.drawPool = nil
	r.mu.Unlock()
	r.onChange()
}

// broadcast fans an event out to every participant outside the lock.
// Sends that cannot be delivered are dropped.
func (r *Room) broadcast(event any) {
	r.mu.RLock()
	senders := make([]Sender, 0, len(r.participants))
	for _, p := range r.participants {
		senders = append(senders, p.sender)
	}
	r.mu.RUnlock()

	for _, s := range senders {
		s.Send(event)
	}
}

// StatsEntry reports the room's contribution to the global ROOM_STATS
// snapshot, derived fresh from live state.
func (r *Room) StatsEntry() (holders int, timer RoomTimer, taken []int, prize float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	holders = r.holderCountLocked()
	timer = RoomTimer{Playing: r.phase != PhaseCountdown, Seconds: r.countdown}
	taken = r.takenCardsLocked()
	prize = Payout(r.Stake, holders, r.cfg.LowestStake)
	return
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
