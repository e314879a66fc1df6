package internal

import "time"

type Config struct {
	BufferSize           int           `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=1s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`

	QuestionTime time.Duration `env:"QUESTION_TIME,default=10s"`
	RevealPause  time.Duration `env:"REVEAL_PAUSE,default=3s"`
	CodeLength   int           `env:"CODE_LENGTH,default=4"`

	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/rooms"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	Host           string `env:"HOST,default=0.0.0.0"`
	Port           int    `env:"PORT,default=4000"`
}
