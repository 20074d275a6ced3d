package main

import (
	"errors"
	"slices"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

type config struct {
	KafkaBrokers []string `env:"KAFKA_BROKERS" env-separator:"," env-default:"kafka:9092"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" env-default:"manager-console-events"`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" env-default:"manager-console-notifier"`
}

func loadConfig() (*config, error) {
	var cfg config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	for i, b := range cfg.KafkaBrokers {
		cfg.KafkaBrokers[i] = strings.TrimSpace(b)
	}
	cfg.KafkaBrokers = slices.DeleteFunc(cfg.KafkaBrokers, func(b string) bool { return b == "" })
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS has no broker address")
	}
	return &cfg, nil
}
