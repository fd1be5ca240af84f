package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ozgurcan/lonca/models"
)

// countingPushService, sweep turlarını sayan PushService.
type countingPushService struct {
	purges atomic.Int64
}

func (c *countingPushService) Subscribe(context.Context, string, *models.SubscribeRequest) (*models.PushSubscription, error) {
	return nil, nil
}

func (c *countingPushService) Unsubscribe(context.Context, string, string) (int64, error) {
	return 0, nil
}

func (c *countingPushService) DispatchMessage(context.Context, *models.Thread, *models.Message) {}

func (c *countingPushService) PurgeStale(context.Context) (int64, error) {
	c.purges.Add(1)
	return 0, nil
}

func TestRetentionSweeperRunsPeriodically(t *testing.T) {
	push := &countingPushService{}
	sweeper := NewRetentionSweeper(push, 20*time.Millisecond)

	sweeper.Start()
	time.Sleep(90 * time.Millisecond)
	sweeper.Stop()

	// ~90ms içinde 20ms aralıkla en az 2 tur dönmüş olmalı
	assert.GreaterOrEqual(t, push.purges.Load(), int64(2))

	// Stop sonrası yeni tur çalışmaz
	after := push.purges.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, push.purges.Load())
}
