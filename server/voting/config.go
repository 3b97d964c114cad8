package voting

import (
	"fmt"
	"time"

	"github.com/topi314/clubagenda/internal/xtime"
)

// DefaultConfig requires a project only for speech roles. Evaluation rows never carry one.
func DefaultConfig() Config {
	return Config{
		AnonymousRate:        xtime.Duration(2 * time.Second),
		AnonymousBurst:       10,
		ProjectRequiredRoles: []string{"Prepared Speaker", "Keynote Speaker"},
	}
}

type Config struct {
	AnonymousRate        xtime.Duration `toml:"anonymous_rate"`
	AnonymousBurst       int            `toml:"anonymous_burst"`
	ProjectRequiredRoles []string       `toml:"project_required_roles"`
}

func (c Config) String() string {
	return fmt.Sprintf("\n AnonymousRate: %s\n AnonymousBurst: %d\n ProjectRequiredRoles: %v",
		c.AnonymousRate,
		c.AnonymousBurst,
		c.ProjectRequiredRoles,
	)
}
