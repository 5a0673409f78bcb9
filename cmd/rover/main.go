package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"rover-link/internal/config"
	"rover-link/internal/drive"
	"rover-link/internal/infra/ina228"
	"rover-link/internal/infra/kafka"
	"rover-link/internal/infra/mq"
	"rover-link/internal/infra/pwm"
	"rover-link/internal/infra/rabbitmq"
	"rover-link/internal/link"
	"rover-link/internal/loop"
	"rover-link/internal/usecase"
	"rover-link/internal/usecase/teleop"
)

func main() {
	// 1. 配置加载
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		panic(err)
	}

	// Init Logger
	writeSyncer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize, // megabytes
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge, // days
		Compress:   cfg.Log.Compress,
	})
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zap.DebugLevel // Default
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		writeSyncer,
		zap.NewAtomicLevelAt(level),
	)
	logger := zap.New(core, zap.AddCaller())
	defer logger.Sync()

	// 2. 硬件层 (PWM 驱动 & 功率监测)
	driver := pwm.NewDriver(cfg.PWM.CarrierHz, logger)
	if cfg.PWM.Enabled {
		if err := pwm.Open(); err != nil {
			logger.Fatal("GPIO memory map failed", zap.Error(err))
		}
		defer pwm.Close()

		bindPins(driver, pwm.ChannelLeft, cfg.PWM.LeftPins)
		bindPins(driver, pwm.ChannelRight, cfg.PWM.RightPins)
		bindPins(driver, pwm.ChannelWinch, cfg.PWM.WinchPins)
		if err := driver.Configure(); err != nil {
			logger.Fatal("PWM bring-up failed", zap.Error(err))
		}
	} else {
		logger.Warn("PWM disabled, drive writes go nowhere")
	}

	train := drive.NewTrain(driver, logger)
	train.Stop() // stationary until the first command

	sensorCfg := ina228.Config{
		ShuntOhms:   cfg.Sensor.ShuntOhms,
		MaxCurrentA: cfg.Sensor.MaxCurrentA,
	}
	var bus ina228.Bus = ina228.DisconnectedBus{}
	if cfg.Sensor.Enabled {
		i2cBus, err := ina228.OpenI2C(ina228.BusConfig{Bus: cfg.Sensor.Bus, Addr: cfg.Sensor.Addr})
		if err != nil {
			logger.Fatal("I2C bring-up failed", zap.Error(err))
		}
		defer i2cBus.Close()
		bus = i2cBus
	} else {
		logger.Warn("power monitor disabled, telemetry fields will be NaN")
	}
	sampler := ina228.NewSampler(bus, sensorCfg, logger)
	if cfg.Sensor.Enabled {
		if err := sampler.Init(sensorCfg); err != nil {
			logger.Fatal("INA228 calibration failed", zap.Error(err))
		}
	}

	// 3. 基础设施层 (消息队列)
	producer := newProducer(cfg, logger)
	defer producer.Close()

	// 4. 业务逻辑层 (分发器 & 指令处理)
	dispatcher := usecase.NewTelemetryDispatcher(producer, 4, logger)
	dispatcher.Start()
	defer dispatcher.Stop()

	handler := teleop.NewHandler(train, logger)

	// 5. 链路层 & 控制循环
	srv := link.NewServer(cfg.Link, logger)
	go func() {
		if err := srv.Start(context.Background()); err != nil {
			logger.Fatal("UDP link failed", zap.Error(err))
		}
	}()

	ctl := loop.New(srv, handler, sampler, dispatcher, loop.Options{
		RoverID:  cfg.Rover.ID,
		RateHz:   cfg.Loop.RateHz,
		Watchdog: cfg.Loop.WatchdogTimeout,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = ctl.Run(ctx)
	}()

	// 优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cancel()
	<-loopDone
	_ = srv.Stop(context.Background())
}

func bindPins(driver *pwm.Driver, ch pwm.Channel, pins []int) {
	for _, pin := range pins {
		driver.Bind(ch, pwm.NewRPIOPin(pin))
	}
}

func newProducer(cfg *config.Config, logger *zap.Logger) mq.Producer {
	if !cfg.MessageQueue.Enabled {
		return mq.NewNoOpProducer()
	}
	switch cfg.MessageQueue.Type {
	case "kafka":
		p, err := kafka.NewKafkaProducer(cfg.MessageQueue.Kafka, logger)
		if err != nil {
			logger.Error("Kafka producer init failed, telemetry uplink off", zap.Error(err))
			return mq.NewNoOpProducer()
		}
		return p
	case "rabbitmq":
		p, err := rabbitmq.NewRabbitMQProducer(cfg.MessageQueue.RabbitMQ, logger)
		if err != nil {
			logger.Error("RabbitMQ producer init failed, telemetry uplink off", zap.Error(err))
			return mq.NewNoOpProducer()
		}
		return p
	default:
		logger.Warn("unknown message_queue.type, telemetry uplink off",
			zap.String("type", cfg.MessageQueue.Type))
		return mq.NewNoOpProducer()
	}
}
