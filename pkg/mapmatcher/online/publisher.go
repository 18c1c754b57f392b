package online

import (
	"sync"
	"sync/atomic"
)

// Publisher. single producer, multi consumer stream of EnhancedLocation.
// every subscriber gets values in publish order without gaps. a subscriber whose buffer is full when a value
// arrives is unsubscribed and its stream closed, so a consumer never sees a stream with values missing.
type Publisher struct {
	mu         sync.Mutex
	seq        int
	subs       map[int]chan EnhancedLocation
	closed     bool
	overflowed atomic.Uint64
}

func NewPublisher() *Publisher {
	return &Publisher{
		subs: make(map[int]chan EnhancedLocation),
	}
}

// Subscribe. returns the stream and a function that unsubscribes and closes it.
func (p *Publisher) Subscribe(buffer int) (<-chan EnhancedLocation, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan EnhancedLocation, buffer)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		close(ch)
		return ch, func() {}
	}
	id := p.seq
	p.seq++
	p.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if sub, ok := p.subs[id]; ok {
				delete(p.subs, id)
				close(sub)
			}
		})
	}
}

// Publish. never blocks.
func (p *Publisher) Publish(loc EnhancedLocation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	for id, ch := range p.subs {
		select {
		case ch <- loc:
		default:
			delete(p.subs, id)
			close(ch)
			p.overflowed.Add(1)
		}
	}
}

// Overflowed. number of subscribers cut off because they fell a full buffer behind.
func (p *Publisher) Overflowed() uint64 {
	return p.overflowed.Load()
}

func (p *Publisher) NumSubscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}

// Close. closes every subscriber stream, later Subscribe calls get a closed stream.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	for id, ch := range p.subs {
		close(ch)
		delete(p.subs, id)
	}
}
