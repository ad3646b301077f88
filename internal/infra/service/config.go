package service

import (
	"github.com/bool64/brick"
	"github.com/bool64/brick/database"
	"github.com/bool64/brick/jaeger"
)

// Name is the name of this application or service.
const Name = "iothub-fakehub"

// Config defines application configuration.
type Config struct {
	brick.BaseConfig

	// SASToken is an expected Authorization header value, empty token accepts any.
	SASToken string `split_words:"true"`
	Dedup    string `split_words:"true" default:"advanced" enum:"none,naive,advanced"`

	// RetainEvents caps number of events kept in memory when database is not configured.
	RetainEvents int `split_words:"true" default:"10000"`

	DatabaseDriver string          `split_words:"true" default:"mysql" enum:"mysql,sqlite"`
	Database       database.Config `split_words:"true"`
	Jaeger         jaeger.Config   `split_words:"true"`
}
