package progress

import (
	"fmt"

	"github.com/topi314/clubagenda/internal/xtime"
)

type Config struct {
	QualificationWindow xtime.Duration `toml:"qualification_window"`
	SpeechRole          string         `toml:"speech_role"`
}

func (c Config) String() string {
	return fmt.Sprintf("\n QualificationWindow: %s\n SpeechRole: %s",
		c.QualificationWindow,
		c.SpeechRole,
	)
}
