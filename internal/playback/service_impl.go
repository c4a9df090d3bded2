package playback

import (
	"context"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/vyra/internal/catalog"
	"github.com/llehouerou/vyra/internal/player"
	"github.com/llehouerou/vyra/internal/playlist"
	"github.com/llehouerou/vyra/internal/stream"
)

const historySize = 50

// serviceImpl implements Service. Every field below the loop marker is owned
// by the run goroutine and must only be touched from it.
type serviceImpl struct {
	sink     player.Sink
	resolver stream.Resolver
	sessions SessionStore
	radio    catalog.RadioSource
	listener Listener
	logger   *log.Logger
	intn     func(int) int

	loadTimeout      time.Duration
	saveInterval     time.Duration
	restartThreshold time.Duration

	snapMu   sync.RWMutex
	snapshot Facts

	subsMu sync.Mutex
	subs   []*Subscription
	closed bool

	actions   chan func()
	done      chan struct{}
	loopDone  chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	// loop
	queue     *playlist.PlayingQueue
	history   *playlist.QueueHistory
	facts     Facts
	published Facts
	gen       uint64
	pending   *pendingLoad
	ready     bool
	locator   stream.Locator
	watchdog  *time.Timer
	radioBusy bool
	radioGen  uint64
	radioPlay bool

	// A request made while a fetch from an older generation runs; it is
	// issued once that fetch comes back.
	radioRetry     bool
	radioRetryGen  uint64
	radioRetryPlay bool
}

// pendingLoad is a begin-playing that has not reached DataReady yet.
type pendingLoad struct {
	gen      uint64
	track    catalog.Track
	autoplay bool
	seekTo   time.Duration
}

// New creates the service and starts its loop.
func New(opts Options) Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &serviceImpl{
		sink:             opts.Sink,
		resolver:         opts.Resolver,
		sessions:         opts.Sessions,
		radio:            opts.Radio,
		listener:         opts.Listener,
		logger:           logger.With("component", "playback"),
		intn:             opts.Intn,
		loadTimeout:      opts.LoadTimeout,
		saveInterval:     opts.SaveInterval,
		restartThreshold: opts.RestartThreshold,
		actions:          make(chan func()),
		done:             make(chan struct{}),
		loopDone:         make(chan struct{}),
		queue:            playlist.NewQueue(),
		history:          playlist.NewQueueHistory(historySize),
	}
	if s.listener == nil {
		s.listener = nopListener{}
	}
	if s.intn == nil {
		s.intn = rand.IntN
	}
	if s.loadTimeout == 0 {
		s.loadTimeout = DefaultLoadTimeout
	}
	if s.saveInterval == 0 {
		s.saveInterval = DefaultSaveInterval
	}
	if s.restartThreshold == 0 {
		s.restartThreshold = DefaultRestartThreshold
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.facts = Facts{Volume: 1, Autoplay: opts.Autoplay, QueueIndex: -1}
	s.sink.SetVolume(s.facts.Volume)
	s.history.Record(s.queue)
	s.commit()

	go s.run()
	return s
}

func (s *serviceImpl) run() {
	defer close(s.loopDone)

	var tick <-chan time.Time
	if s.sessions != nil && s.saveInterval > 0 {
		ticker := time.NewTicker(s.saveInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-s.done:
			return
		case fn := <-s.actions:
			fn()
		case ev := <-s.sink.Events():
			s.handleSinkEvent(ev)
		case <-tick:
			_ = s.saveSession()
		}
		s.commit()
	}
}

// exec runs fn on the loop and waits for it.
func (s *serviceImpl) exec(fn func()) error {
	finished := make(chan struct{})
	action := func() {
		fn()
		s.commit()
		close(finished)
	}
	select {
	case s.actions <- action:
	case <-s.done:
		return ErrClosed
	}
	<-finished
	return nil
}

// post hands fn to the loop without waiting for it to run. It is used by
// background goroutines and must never be called from the loop itself.
func (s *serviceImpl) post(fn func()) {
	select {
	case s.actions <- fn:
	case <-s.done:
	}
}

// commit publishes the facts if they changed since the last commit.
func (s *serviceImpl) commit() {
	if s.facts == s.published {
		return
	}
	s.published = s.facts
	snap := s.facts.clone()

	s.snapMu.Lock()
	s.snapshot = snap
	s.snapMu.Unlock()

	s.broadcast(func(sub *Subscription) { sub.sendFacts(snap) })
}

func (s *serviceImpl) broadcast(send func(*Subscription)) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, sub := range s.subs {
		send(sub)
	}
}

func (s *serviceImpl) notifyTrack(prev *catalog.Track) {
	e := TrackChange{Previous: prev, Index: s.queue.CurrentIndex()}
	if s.facts.CurrentTrack != nil {
		t := s.facts.CurrentTrack.Clone()
		e.Current = &t
	}
	s.broadcast(func(sub *Subscription) { sub.sendTrack(e) })
}

func (s *serviceImpl) notifyQueue() {
	s.facts.QueueIndex = s.queue.CurrentIndex()
	s.facts.QueueLen = s.queue.Len()
	tracks := s.queue.Tracks()
	index := s.queue.CurrentIndex()
	s.broadcast(func(sub *Subscription) {
		sub.sendQueue(QueueChange{Tracks: catalog.CloneTracks(tracks), Index: index})
	})
}

func (s *serviceImpl) notifyMode() {
	e := ModeChange{Repeat: s.facts.Repeat, Shuffle: s.facts.Shuffle, Autoplay: s.facts.Autoplay}
	s.broadcast(func(sub *Subscription) { sub.sendMode(e) })
}

func (s *serviceImpl) notifyError(e ErrorEvent) {
	s.broadcast(func(sub *Subscription) { sub.sendError(e) })
}

// Facts returns the last committed snapshot.
func (s *serviceImpl) Facts() Facts {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.snapshot.clone()
}

// Queue returns a copy of the queue and its cursor.
func (s *serviceImpl) Queue() ([]catalog.Track, int) {
	var tracks []catalog.Track
	index := -1
	_ = s.exec(func() {
		tracks = catalog.CloneTracks(s.queue.Tracks())
		index = s.queue.CurrentIndex()
	})
	return tracks, index
}

// Subscribe returns a new subscription. After Close, the returned
// subscription is already done.
func (s *serviceImpl) Subscribe() *Subscription {
	sub := newSubscription()
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.closed {
		sub.close()
		return sub
	}
	s.subs = append(s.subs, sub)
	return sub
}

// Close saves the session, stops the loop and waits for background work.
func (s *serviceImpl) Close() error {
	var err error
	s.closeOnce.Do(func() {
		_ = s.exec(func() { err = s.saveSession() })
		close(s.done)
		<-s.loopDone
		s.cancel()
		s.stopWatchdog()
		s.wg.Wait()
		s.sink.Stop()

		s.subsMu.Lock()
		s.closed = true
		for _, sub := range s.subs {
			sub.close()
		}
		s.subs = nil
		s.subsMu.Unlock()
	})
	return err
}
