package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/vuer-ai/zaku-go/pkg/index"
	"github.com/vuer-ai/zaku-go/pkg/types"
)

// Collector samples queue depths from the metadata index
type Collector struct {
	store  index.Store
	stopCh chan struct{}
}

// NewCollector creates a new queue depth collector
func NewCollector(store index.Store) *Collector {
	return &Collector{
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		// Collect immediately on start
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	queues, err := c.store.ListQueues(ctx)
	if err != nil {
		return
	}

	for _, queue := range queues {
		depth, err := c.store.CountCreated(ctx, queue)
		if err != nil {
			if errors.Is(err, types.ErrNoIndex) {
				// Dropped between list and count
				QueueDepth.DeleteLabelValues(queue)
			}
			continue
		}
		QueueDepth.WithLabelValues(queue).Set(float64(depth))
	}
}
