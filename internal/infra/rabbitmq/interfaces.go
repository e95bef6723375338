package rabbitmq

import "zippty/order-service/internal/infra/events"

var _ events.Publisher = (*Publisher)(nil)
