package playback

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
type Subscription struct {
	FactsChanged <-chan Facts
	TrackChanged <-chan TrackChange
	QueueChanged <-chan QueueChange
	ModeChanged  <-chan ModeChange
	Error        <-chan ErrorEvent
	Done         <-chan struct{}

	// Internal write channels
	factsCh chan Facts
	trackCh chan TrackChange
	queueCh chan QueueChange
	modeCh  chan ModeChange
	errorCh chan ErrorEvent
	doneCh  chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		factsCh: make(chan Facts, eventBufferSize),
		trackCh: make(chan TrackChange, eventBufferSize),
		queueCh: make(chan QueueChange, eventBufferSize),
		modeCh:  make(chan ModeChange, eventBufferSize),
		errorCh: make(chan ErrorEvent, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.FactsChanged = s.factsCh
	s.TrackChanged = s.trackCh
	s.QueueChanged = s.queueCh
	s.ModeChanged = s.modeCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendFacts sends a facts snapshot (non-blocking).
func (s *Subscription) sendFacts(f Facts) {
	select {
	case s.factsCh <- f:
	default:
		// Drop if buffer full
	}
}

func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
	}
}

func (s *Subscription) sendQueue(e QueueChange) {
	select {
	case s.queueCh <- e:
	default:
	}
}

func (s *Subscription) sendMode(e ModeChange) {
	select {
	case s.modeCh <- e:
	default:
	}
}

func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
