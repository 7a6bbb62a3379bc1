// Package conf holds the configuration tree scanned from configs/config.yaml.
package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

type Bootstrap struct {
	Server  *Server  `json:"server"`
	Data    *Data    `json:"data"`
	Omdb    *Omdb    `json:"omdb"`
	Session *Session `json:"session"`
	Feed    *Feed    `json:"feed"`
}

type Server struct {
	Http *Server_HTTP `json:"http"`
}

type Server_HTTP struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

type Data struct {
	Database *Data_Database `json:"database"`
	Redis    *Data_Redis    `json:"redis"`
}

// Data_Database selects the gorm dialector. Driver is "postgres" or "sqlite".
type Data_Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
}

// Data_Redis backs the session store. An empty Addr disables redis.
type Data_Redis struct {
	Network      string    `json:"network"`
	Addr         string    `json:"addr"`
	Password     string    `json:"password"`
	ReadTimeout  *Duration `json:"read_timeout"`
	WriteTimeout *Duration `json:"write_timeout"`
}

// Omdb configures the external movie metadata API.
type Omdb struct {
	Url     string    `json:"url"`
	ApiKey  string    `json:"api_key"`
	Timeout *Duration `json:"timeout"`
}

type Session struct {
	Name   string    `json:"name"`
	Secret string    `json:"secret"`
	MaxAge *Duration `json:"max_age"`
	Secure bool      `json:"secure"`
}

// Feed holds the home page list sizes.
type Feed struct {
	TrendingLimit int `json:"trending_limit"`
	PopularLimit  int `json:"popular_limit"`
	MinimumTotal  int `json:"minimum_total"`
}

// Duration decodes "5s"-style strings as well as plain seconds.
type Duration struct {
	time.Duration
}

// NewDuration wraps d.
func NewDuration(d time.Duration) *Duration {
	return &Duration{Duration: d}
}

// AsDuration returns the wrapped value, zero for a nil receiver.
func (d *Duration) AsDuration() time.Duration {
	if d == nil {
		return 0
	}
	return d.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value * float64(time.Second))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
