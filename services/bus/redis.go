package bus

import (
	"Dinder/services/redis"
	redis_utils "Dinder/services/redis/utils"
	"context"
	"log"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

// outboundQueueSize bounds frames waiting to be published; beyond it frames
// are dropped, which the protocol already tolerates.
const outboundQueueSize = 256

type outbound struct {
	channel string
	frame   []byte
}

// RedisTransport carries the bus over Redis pub/sub. Every process that
// uses the same server and bus name shares the traffic.
type RedisTransport struct {
	client *redis.RedisClient
	name   string
	ctx    context.Context
	cancel context.CancelFunc
	out    chan outbound
	wg     sync.WaitGroup

	mu     sync.Mutex
	subs   map[*redisSubscription]struct{}
	closed bool
}

func NewRedisTransport(client *redis.RedisClient, busName string) *RedisTransport {
	ctx, cancel := context.WithCancel(context.Background())
	t := &RedisTransport{
		client: client,
		name:   busName,
		ctx:    ctx,
		cancel: cancel,
		out:    make(chan outbound, outboundQueueSize),
		subs:   make(map[*redisSubscription]struct{}),
	}
	t.wg.Add(1)
	go t.publishLoop()
	return t
}

// publishLoop is the only writer, which keeps this handle's frames in order
func (t *RedisTransport) publishLoop() {
	defer t.wg.Done()
	for {
		select {
		case <-t.ctx.Done():
			return
		case msg := <-t.out:
			if err := t.client.Publish(t.ctx, msg.channel, msg.frame); err != nil {
				log.Printf("[BUS-ERROR] %v", err)
			}
		}
	}
}

func (t *RedisTransport) Publish(topic string, frame []byte) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		log.Printf("[BUS-ERROR] Publish on closed bus %s ignored", t.name)
		return
	}

	channel := redis_utils.FormatBusChannel(t.name, topic)
	select {
	case t.out <- outbound{channel: channel, frame: append([]byte(nil), frame...)}:
	default:
		log.Printf("[BUS-ERROR] Outbound queue full, dropping frame for %s", channel)
	}
}

func (t *RedisTransport) Subscribe(topic string, handler Handler) (Subscription, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrClosed
	}
	t.mu.Unlock()

	channel := redis_utils.FormatBusChannel(t.name, topic)
	ps, err := t.client.Subscribe(t.ctx, channel)
	if err != nil {
		return nil, err
	}

	sub := &redisSubscription{owner: t, ps: ps}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		ps.Close()
		return nil, ErrClosed
	}
	t.subs[sub] = struct{}{}
	t.mu.Unlock()

	go func() {
		for msg := range ps.Channel() {
			deliver(topic, handler, []byte(msg.Payload))
		}
	}()
	log.Printf("[BUS] Subscribed to %s", channel)
	return sub, nil
}

func (t *RedisTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	subs := make([]*redisSubscription, 0, len(t.subs))
	for sub := range t.subs {
		subs = append(subs, sub)
	}
	t.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	t.cancel()
	t.wg.Wait()
	return nil
}

type redisSubscription struct {
	owner *RedisTransport
	ps    *goredis.PubSub
	once  sync.Once
}

func (s *redisSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.owner.mu.Lock()
		delete(s.owner.subs, s)
		s.owner.mu.Unlock()
		if err := s.ps.Close(); err != nil {
			log.Printf("[BUS-ERROR] Error closing subscription: %v", err)
		}
	})
}
