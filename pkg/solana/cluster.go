package solana

import "strings"

// Public RPC endpoints.
const (
	EndpointDevnet   = "https://api.devnet.solana.com"
	EndpointTestnet  = "https://api.testnet.solana.com"
	EndpointMainnet  = "https://api.mainnet-beta.solana.com"
	EndpointLocalnet = "http://127.0.0.1:8899"
)

var clusterMonikers = map[string]string{
	"devnet":       EndpointDevnet,
	"d":            EndpointDevnet,
	"testnet":      EndpointTestnet,
	"t":            EndpointTestnet,
	"mainnet":      EndpointMainnet,
	"mainnet-beta": EndpointMainnet,
	"m":            EndpointMainnet,
	"localnet":     EndpointLocalnet,
	"localhost":    EndpointLocalnet,
	"l":            EndpointLocalnet,
}

// ResolveEndpoint expands a cluster moniker such as "devnet" or "m" into its
// RPC endpoint. Anything else is assumed to already be a URL.
func ResolveEndpoint(urlOrMoniker string) string {
	if endpoint, ok := clusterMonikers[strings.ToLower(strings.TrimSpace(urlOrMoniker))]; ok {
		return endpoint
	}
	return urlOrMoniker
}
