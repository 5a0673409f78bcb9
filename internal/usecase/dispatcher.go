package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// telemetryTopic 遥测数据默认 Topic / RoutingKey
const telemetryTopic = "rover_telemetry"

// TelemetryDispatcher fans telemetry records out to the message queue from a
// worker pool, decoupling broker latency from the 20 Hz control loop. The
// enqueue side never blocks: when the buffer is full the record is dropped,
// since the stream is periodic and the next tick brings a fresh one.
type TelemetryDispatcher struct {
	dataChan    chan TelemetryPayload
	producer    DataProducer
	logger      *zap.Logger
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

func NewTelemetryDispatcher(producer DataProducer, workerCount int, logger *zap.Logger) *TelemetryDispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &TelemetryDispatcher{
		dataChan:    make(chan TelemetryPayload, 1024),
		producer:    producer,
		workerCount: workerCount,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start 启动 worker 协程池
func (d *TelemetryDispatcher) Start() {
	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.logger.Info("TelemetryDispatcher started", zap.Int("workers", d.workerCount))
}

// Stop 停止分发器并等待所有 worker 退出
func (d *TelemetryDispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
	d.logger.Info("TelemetryDispatcher stopped")
}

// Dispatch enqueues one record, non-blocking.
func (d *TelemetryDispatcher) Dispatch(p TelemetryPayload) {
	select {
	case d.dataChan <- p:
	default:
		d.logger.Warn("TelemetryDispatcher channel full, dropping record")
	}
}

func (d *TelemetryDispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case p := <-d.dataChan:
			if err := d.producer.Produce(d.ctx, telemetryTopic, p.RoverID, p); err != nil {
				d.logger.Error("TelemetryDispatcher failed to publish", zap.Error(err))
			}
		}
	}
}
