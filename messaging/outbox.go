package messaging

import (
	"log"
	"time"

	"podfleet/store"
)

const (
	outboxBatch   = 50
	purgeInterval = time.Hour
	sentRetention = 24 * time.Hour
)

// OutboxDrainer periodically publishes pending outbox messages.
type OutboxDrainer struct {
	db       *store.DB
	pub      Publisher
	interval time.Duration
	stopChan chan struct{}
}

func NewOutboxDrainer(db *store.DB, pub Publisher, interval time.Duration) *OutboxDrainer {
	return &OutboxDrainer{
		db:       db,
		pub:      pub,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (d *OutboxDrainer) Start() {
	go d.run()
}

func (d *OutboxDrainer) Stop() {
	select {
	case d.stopChan <- struct{}{}:
	default:
	}
}

func (d *OutboxDrainer) run() {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	purge := time.NewTicker(purgeInterval)
	defer purge.Stop()

	for {
		select {
		case <-d.stopChan:
			return
		case <-ticker.C:
			d.Drain()
		case <-purge.C:
			if n, err := d.db.PurgeSentOutbox(sentRetention); err != nil {
				log.Printf("outbox: purge: %v", err)
			} else if n > 0 {
				log.Printf("outbox: purged %d sent messages", n)
			}
		}
	}
}

// Drain publishes one batch and returns how many messages were sent.
// Publishers that report a broken connection are left alone so pending
// messages keep their retry budget.
func (d *OutboxDrainer) Drain() int {
	if c, ok := d.pub.(interface{ IsConnected() bool }); ok && !c.IsConnected() {
		return 0
	}
	msgs, err := d.db.ListPendingOutbox(outboxBatch)
	if err != nil {
		log.Printf("outbox: list pending: %v", err)
		return 0
	}
	sent := 0
	for _, msg := range msgs {
		if err := d.pub.Publish(msg.Topic, msg.Payload); err != nil {
			log.Printf("outbox: publish %s to %s failed: %v", msg.MsgType, msg.Topic, err)
			d.db.IncrementOutboxRetries(msg.ID)
			continue
		}
		if err := d.db.AckOutbox(msg.ID); err != nil {
			log.Printf("outbox: ack %d: %v", msg.ID, err)
			continue
		}
		sent++
	}
	return sent
}
