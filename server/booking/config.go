package booking

import (
	"fmt"
)

type Config struct {
	WaitlistCapacity int `toml:"waitlist_capacity"`
}

func (c Config) String() string {
	return fmt.Sprintf("\n WaitlistCapacity: %d", c.WaitlistCapacity)
}
