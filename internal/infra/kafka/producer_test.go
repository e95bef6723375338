package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zippty/order-service/internal/infra/events"
)

func TestProducer_Publish(t *testing.T) {
	conf := sarama.NewConfig()
	conf.Producer.Return.Successes = true
	sp := mocks.NewSyncProducer(t, conf)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var env events.Envelope
		if err := json.Unmarshal(val, &env); err != nil {
			return err
		}
		if env.Pattern != "order.paid" || env.ID == "" {
			return errors.New("unexpected envelope")
		}
		return nil
	})
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newProducer(sp, "orders")

	require.NoError(t, p.Publish(context.Background(), "order.paid", map[string]string{"orderId": "o1"}))
	assert.ErrorIs(t, p.Publish(context.Background(), "order.paid", nil), sarama.ErrOutOfBrokers)
	assert.NoError(t, p.Close())
}

func TestNewConfig_BoundsSends(t *testing.T) {
	c := newConfig()

	require.NoError(t, c.Validate())
	assert.Equal(t, sarama.WaitForAll, c.Producer.RequiredAcks)
	assert.True(t, c.Producer.Return.Successes)
	for name, d := range map[string]time.Duration{
		"producer": c.Producer.Timeout,
		"dial":     c.Net.DialTimeout,
		"read":     c.Net.ReadTimeout,
		"write":    c.Net.WriteTimeout,
	} {
		assert.Equal(t, sendTimeout, d, name)
	}
}
