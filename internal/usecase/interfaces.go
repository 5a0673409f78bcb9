package usecase

import "context"

// DataProducer 遥测数据生产者接口 (Kafka / RabbitMQ / NoOp)
type DataProducer interface {
	// Produce 发送数据到指定 Topic
	Produce(ctx context.Context, topic string, key string, data interface{}) error
}
