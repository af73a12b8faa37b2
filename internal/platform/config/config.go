package config

import (
	"os"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	// Token-governance deployment identities. One process serves one token
	// mint; pool, registry, and governance keys all derive from it.
	TokenMint           string
	GovernanceAuthority string
	TreasuryAccount     string
	VaultAccount        string

	EnableStakingOutboxRelay    bool
	EnableGovernanceOutboxRelay bool
	EnableRegistryOutboxRelay   bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "wct"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	mint := strings.TrimSpace(os.Getenv("TOKEN_MINT"))
	if mint == "" {
		mint = "wct-mint"
	}
	authority := strings.TrimSpace(os.Getenv("GOVERNANCE_AUTHORITY"))
	if authority == "" {
		authority = "governance-authority"
	}
	treasury := strings.TrimSpace(os.Getenv("TREASURY_ACCOUNT"))
	if treasury == "" {
		treasury = "treasury"
	}
	vault := strings.TrimSpace(os.Getenv("VAULT_ACCOUNT"))
	if vault == "" {
		vault = "staking-vault"
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		TokenMint:           mint,
		GovernanceAuthority: authority,
		TreasuryAccount:     treasury,
		VaultAccount:        vault,

		EnableStakingOutboxRelay:    envBool("ENABLE_STAKING_OUTBOX_RELAY", true),
		EnableGovernanceOutboxRelay: envBool("ENABLE_GOVERNANCE_OUTBOX_RELAY", true),
		EnableRegistryOutboxRelay:   envBool("ENABLE_REGISTRY_OUTBOX_RELAY", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
