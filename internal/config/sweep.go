package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// SweepPolicy is the operator-tunable part of expiration sweeping. It is
// kept separate from Config so it can be reloaded without a restart.
type SweepPolicy struct {
	IdleTimeouts map[string]time.Duration `mapstructure:"idleTimeouts"`
}

func DefaultSweepPolicy() SweepPolicy {
	return SweepPolicy{
		IdleTimeouts: map[string]time.Duration{
			"log":        time.Hour,
			"trajectory": time.Hour,
			"mudLog":     time.Hour,
		},
	}
}

type SweepPolicyHolder struct {
	current atomic.Value // holds SweepPolicy
}

func NewSweepPolicyHolder() (*SweepPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("sweep")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/wellstore/config") // Volume-mounted config
	v.AddConfigPath("/etc/wellstore")            // System config
	v.AddConfigPath(".")                         // Current directory (dev mode)

	v.SetEnvPrefix("WELLSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// if config file not found, use defaults
		defaults := DefaultSweepPolicy()
		v.SetDefault("sweep.idleTimeouts", defaults.IdleTimeouts)
	}

	var policy SweepPolicy
	if err := v.UnmarshalKey("sweep", &policy); err != nil {
		return nil, err
	}
	if err := validateSweepPolicy(policy); err != nil {
		return nil, err
	}

	holder := &SweepPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated SweepPolicy
		if err := v.UnmarshalKey("sweep", &updated); err != nil {
			log.Printf("[sweep-policy] reload failed: %v", err)
			return
		}
		if err := validateSweepPolicy(updated); err != nil {
			log.Printf("[sweep-policy] invalid policy ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[sweep-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *SweepPolicyHolder) Get() SweepPolicy {
	return h.current.Load().(SweepPolicy)
}

// IdleTimeoutFor returns the reloadable idle timeout for an object type,
// or zero when the policy does not name it.
func (h *SweepPolicyHolder) IdleTimeoutFor(objectType string) time.Duration {
	return h.Get().IdleTimeouts[objectType]
}

func validateSweepPolicy(policy SweepPolicy) error {
	for objectType, d := range policy.IdleTimeouts {
		if d <= 0 {
			return errors.New("sweep.idleTimeouts." + objectType + " must be positive")
		}
	}
	return nil
}
