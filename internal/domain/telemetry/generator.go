package telemetry

import (
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
)

// Randomizer provides random integers in a closed range.
type Randomizer interface {
	IntRange(min, max int) int
}

// Clock tells current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// Generator makes fresh fault events.
//
// Zero value is not usable, use NewGenerator or set all fields.
type Generator struct {
	NewID func() string
	Rand  Randomizer
	Clock Clock
}

// NewGenerator creates a generator with random UUIDs, seeded faker and local wall clock.
func NewGenerator() *Generator {
	return &Generator{
		NewID: uuid.NewString,
		Rand:  gofakeit.New(0),
		Clock: realClock{},
	}
}

// Event makes a new fault event.
func (g *Generator) Event() FaultEvent {
	return FaultEvent{
		MessageID:       g.NewID(),
		AssetName:       AssetName(g.Rand),
		AssetPath:       AssetPath,
		FaultName:       FaultName,
		FaultActiveTime: FormatTime(g.Clock.Now()),
		MessageSource:   MessageSource,
		FaultCostValue:  FaultCostValue,
	}
}

// AssetName makes a name of one uppercase letter and two digits, e.g. "Q47".
func AssetName(r Randomizer) string {
	letter := byte('A' + r.IntRange(0, 25))
	n := r.IntRange(10, 99)

	num := strconv.Itoa(n)
	if n < 10 {
		num = "0" + num
	}

	return string(letter) + num
}

// FormatTime renders local time as "2006-01-02 15:04:05.000000",
// fractional part is omitted for whole seconds.
func FormatTime(t time.Time) string {
	t = t.Local()

	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format("2006-01-02 15:04:05")
	}

	return t.Format("2006-01-02 15:04:05.000000")
}
