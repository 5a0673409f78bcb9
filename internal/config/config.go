package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Rover        RoverConfig        `mapstructure:"rover"`
	Link         LinkConfig         `mapstructure:"link"`
	Loop         LoopConfig         `mapstructure:"loop"`
	PWM          PWMConfig          `mapstructure:"pwm"`
	Sensor       SensorConfig       `mapstructure:"sensor"`
	MessageQueue MessageQueueConfig `mapstructure:"message_queue"`
	Log          LogConfig          `mapstructure:"log"`
}

type RoverConfig struct {
	ID string `mapstructure:"id"`
}

type LinkConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	// AllowedSources pins commander IPs; empty accepts any sender.
	AllowedSources []string `mapstructure:"allowed_sources"`
}

type LoopConfig struct {
	RateHz int `mapstructure:"rate_hz"`
	// WatchdogTimeout > 0 halts the drivetrain when the command link goes
	// silent for that long. 0 keeps the last command indefinitely.
	WatchdogTimeout time.Duration `mapstructure:"watchdog_timeout"`
}

type PWMConfig struct {
	Enabled   bool  `mapstructure:"enabled"`
	CarrierHz int   `mapstructure:"carrier_hz"`
	LeftPins  []int `mapstructure:"left_pins"`  // front + back, one channel
	RightPins []int `mapstructure:"right_pins"` // front + back, one channel
	WinchPins []int `mapstructure:"winch_pins"`
}

type SensorConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Bus         string  `mapstructure:"bus"`
	Addr        uint16  `mapstructure:"addr"`
	ShuntOhms   float64 `mapstructure:"shunt_ohms"`
	MaxCurrentA float64 `mapstructure:"max_current_a"`
}

type MessageQueueConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Type     string         `mapstructure:"type"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

type RabbitMQConfig struct {
	URL         string `mapstructure:"url"`
	VirtualHost string `mapstructure:"virtual_host"`
	Exchange    string `mapstructure:"exchange"`
	RoutingKey  string `mapstructure:"routing_key"`
	QueueName   string `mapstructure:"queue_name"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

func LoadConfig(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()

	viper.SetDefault("loop.rate_hz", 20)
	viper.SetDefault("pwm.carrier_hz", 333)
	viper.SetDefault("sensor.addr", 0x40)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
