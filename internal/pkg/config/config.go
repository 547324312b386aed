package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DBUsername     string `yaml:"db_username"`
	DBPassword     string `yaml:"db_password"`
	DBHost         string `yaml:"db_host"`
	DBPort         string `yaml:"db_port"`
	DBName         string `yaml:"db_name"`
	DisableTLS     bool   `yaml:"disable_tls"`
	RedisHost      string `yaml:"redis_host"`
	RedisPort      string `yaml:"redis_port"`
	RedisPassword  string `yaml:"redis_password"`
	ServerPort     string `yaml:"server_port"`
	BaseUrl        string `yaml:"base_url"`
	JWTKey         string `yaml:"jwt_key"`
	RecoveryPolicy string `yaml:"recovery_policy"` // requeue | fail
	CheckinTTLMin  int    `yaml:"checkin_ttl_min"`
}

func NewConfig(path string) (*Config, error) {
	var c Config

	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(yamlFile, &c)
	if err != nil {
		return nil, err
	}

	if c.DBUsername == ""|| c.DBPassword == "" || c.DBHost == "" || c.DBName == "" {
		return nil, errors.New("missing required database configuration")
	}

	if c.ServerPort == "" {
		c.ServerPort = ":8080"
	}
	if c.RecoveryPolicy == "" {
		c.RecoveryPolicy = "requeue"
	}
	if c.CheckinTTLMin <= 0 {
		c.CheckinTTLMin = 120
	}

	return &c, nil
}
