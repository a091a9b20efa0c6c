package main

import (
	"context"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

// topicPublisher is the slice of *pubsub.Publisher the service needs.
type topicPublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) (string, error)
	Resume(orderingKey string)
}

type publisherSource interface {
	For(topic string) topicPublisher
}

type topicOpener interface {
	Publisher(name string) *gcppubsub.Publisher
}

// publisherCache keeps one ordered publisher per topic for the life of the
// process; Stop flushes them all on shutdown.
type publisherCache struct {
	client topicOpener
	mu     sync.Mutex
	topics map[string]*gcpPublisher
}

func newPublisherCache(client topicOpener) *publisherCache {
	return &publisherCache{client: client, topics: make(map[string]*gcpPublisher)}
}

func (c *publisherCache) For(topic string) topicPublisher {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pub, ok := c.topics[topic]; ok {
		return pub
	}
	raw := c.client.Publisher(topic)
	if raw == nil {
		return nil
	}
	raw.EnableMessageOrdering = true
	pub := &gcpPublisher{p: raw}
	c.topics[topic] = pub
	return pub
}

func (c *publisherCache) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for topic, pub := range c.topics {
		pub.p.Stop()
		delete(c.topics, topic)
	}
}

type gcpPublisher struct {
	p *gcppubsub.Publisher
}

func (g *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) (string, error) {
	return g.p.Publish(ctx, msg).Get(ctx)
}

func (g *gcpPublisher) Resume(orderingKey string) {
	if orderingKey != "" {
		g.p.ResumePublish(orderingKey)
	}
}
