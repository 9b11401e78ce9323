package core

import (
	"fmt"
	"strings"
	"time"
)

type ClaimAssignmentPolicy string

const (
	// ClaimPolicyBestEffort tolerates a failed role-claim assignment: the
	// failure is logged and the account keeps provisioning. Claims are
	// re-derivable later by an operator.
	ClaimPolicyBestEffort ClaimAssignmentPolicy = "best_effort"
	// ClaimPolicyFailFast compensates (deletes the external identity) and
	// aborts provisioning when the role claim cannot be assigned.
	ClaimPolicyFailFast ClaimAssignmentPolicy = "fail_fast"
)

type ProvisioningConfig struct {
	ClaimPolicy        string        `koanf:"claim_policy" mapstructure:"claim_policy"`
	PropagationTimeout time.Duration `koanf:"propagation_timeout" mapstructure:"propagation_timeout"`
	PasswordLength     int           `koanf:"password_length" mapstructure:"password_length"`
}

type NotificationsConfig struct {
	FromAddress string `koanf:"from_address" mapstructure:"from_address"`
}

type Config struct {
	ServiceName   string              `koanf:"service_name" mapstructure:"service_name"`
	Provisioning  ProvisioningConfig  `koanf:"provisioning" mapstructure:"provisioning"`
	Notifications NotificationsConfig `koanf:"notifications" mapstructure:"notifications"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "claims",
		Provisioning: ProvisioningConfig{
			ClaimPolicy:        string(ClaimPolicyBestEffort),
			PropagationTimeout: 5 * time.Second,
			PasswordLength:     defaultPasswordLength,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	policy := strings.TrimSpace(strings.ToLower(c.Provisioning.ClaimPolicy))
	if policy != "" &&
		policy != string(ClaimPolicyBestEffort) &&
		policy != string(ClaimPolicyFailFast) {
		return fmt.Errorf("core: invalid claim_policy %q", c.Provisioning.ClaimPolicy)
	}
	if c.Provisioning.PasswordLength != 0 && c.Provisioning.PasswordLength < minPasswordLength {
		return fmt.Errorf("core: password_length must be at least %d", minPasswordLength)
	}
	return nil
}

func (c Config) claimPolicy() ClaimAssignmentPolicy {
	if strings.TrimSpace(strings.ToLower(c.Provisioning.ClaimPolicy)) == string(ClaimPolicyFailFast) {
		return ClaimPolicyFailFast
	}
	return ClaimPolicyBestEffort
}

func (c Config) propagationTimeout() time.Duration {
	if c.Provisioning.PropagationTimeout > 0 {
		return c.Provisioning.PropagationTimeout
	}
	return 5 * time.Second
}

func (c Config) passwordLength() int {
	if c.Provisioning.PasswordLength >= minPasswordLength {
		return c.Provisioning.PasswordLength
	}
	return defaultPasswordLength
}
