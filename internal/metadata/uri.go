// Package metadata turns on-chain token URIs into parsed diploma metadata:
// URI normalization, a bounded HTTP fetch, and trait extraction.
package metadata

import "strings"

// DefaultGateway is used when no gateway is configured.
const DefaultGateway = "https://ipfs.io"

const ipfsScheme = "ipfs://"

// IsContentAddressed reports whether uri uses the ipfs:// scheme.
func IsContentAddressed(uri string) bool {
	return strings.HasPrefix(strings.TrimSpace(uri), ipfsScheme)
}

// NormalizeURI rewrites ipfs://<cid>[/path] to <gateway>/ipfs/<cid>[/path].
// The redundant ipfs://ipfs/<cid> form is accepted. Any other URI is returned
// unchanged.
func NormalizeURI(uri, gateway string) string {
	trimmed := strings.TrimSpace(uri)
	if !strings.HasPrefix(trimmed, ipfsScheme) {
		return uri
	}
	if gateway == "" {
		gateway = DefaultGateway
	}
	path := strings.TrimPrefix(trimmed, ipfsScheme)
	path = strings.TrimPrefix(path, "ipfs/")
	path = strings.TrimLeft(path, "/")
	return strings.TrimRight(gateway, "/") + "/ipfs/" + path
}
