package x402

import (
	"strings"

	"github.com/pixelmarket/x402-gateway/internal/pkg/env"
)

// Asset contract identifiers per network. The production network settles
// in the bridged stablecoin, everything else uses the faucet variant.
const (
	NetworkMainnet = "cronos-mainnet"
	NetworkTestnet = "cronos-testnet"

	AssetUSDCe    = "USDCe"
	AssetDevUSDCe = "DevUSDCe"
)

// DefaultTimeoutSeconds bounds the validity window of a signed payment
// authorization when a listing does not override it.
const DefaultTimeoutSeconds = 300

// Config carries the static challenge parameters read from the
// environment: which network payments settle on, who receives them and
// in which asset.
type Config struct {
	Network        string
	PayTo          string
	Asset          string
	TimeoutSeconds int
}

// ConfigFromEnv resolves the payment configuration. The asset is derived
// from the network selector, mirroring the production/test asset split.
func ConfigFromEnv() Config {
	network := strings.TrimSpace(env.GetEnv("NETWORK", NetworkTestnet))

	asset := AssetDevUSDCe
	if network == NetworkMainnet {
		asset = AssetUSDCe
	}

	return Config{
		Network:        network,
		PayTo:          strings.TrimSpace(env.GetEnv("MERCHANT_ADDRESS", "")),
		Asset:          asset,
		TimeoutSeconds: env.GetEnvInt("X402_DEFAULT_TIMEOUT", DefaultTimeoutSeconds),
	}
}
