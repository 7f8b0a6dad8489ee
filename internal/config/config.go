// Package config parses a node's runtime configuration from its
// environment, mirroring the node binary's only configuration surface: no
// config files, no flags, just env vars, so every deployment knob is
// visible in the process's environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/VGLoic/mpc-exploration/internal/addition"
)

// Config is a node's full runtime configuration.
type Config struct {
	Port         uint16
	LogLevel     string
	ServerPeerID uint8
	Peers        []addition.Peer
	SentryDSN    string
	DDEnv        string
}

// Parse reads and validates every variable this binary needs, collecting
// every error it finds rather than stopping at the first one, so a
// misconfigured deployment can be fixed in one pass.
func Parse() (Config, error) {
	var errs []string

	port, err := parseOptional[uint16]("PORT", 3000)
	if err != nil {
		errs = append(errs, err.Error())
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = envOrDefault("RUST_LOG", "info")
	}

	serverPeerID, err := parseRequired[uint8]("SERVER_PEER_ID")
	if err != nil {
		errs = append(errs, err.Error())
	}

	peers, err := parsePeers()
	if err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("parsing environment: %s", strings.Join(errs, ", "))
	}

	return Config{
		Port:         port,
		LogLevel:     logLevel,
		ServerPeerID: serverPeerID,
		Peers:        peers,
		SentryDSN:    os.Getenv("SENTRY_DSN"),
		DDEnv:        envOrDefault("DD_ENV", "development"),
	}, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parsePeers() ([]addition.Peer, error) {
	rawURLs, ok := os.LookupEnv("PEER_URLS")
	if !ok || strings.TrimSpace(rawURLs) == "" {
		return nil, fmt.Errorf("[PEER_URLS]: must be specified and non empty")
	}
	urls := splitNonEmpty(rawURLs)
	if len(urls) == 0 {
		return nil, fmt.Errorf("[PEER_URLS]: must contain at least one peer")
	}
	if hasDuplicates(urls) {
		return nil, fmt.Errorf("[PEER_URLS]: must contain unique urls")
	}

	rawIDs, ok := os.LookupEnv("PEER_IDS")
	if !ok || strings.TrimSpace(rawIDs) == "" {
		return nil, fmt.Errorf("[PEER_IDS]: must be specified and non empty")
	}
	idStrs := splitNonEmpty(rawIDs)
	ids := make([]uint8, 0, len(idStrs))
	for _, s := range idStrs {
		id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("[PEER_IDS]: %w", err)
		}
		ids = append(ids, uint8(id))
	}
	if hasDuplicates(ids) {
		return nil, fmt.Errorf("[PEER_IDS]: must contain unique ids")
	}

	if len(urls) != len(ids) {
		return nil, fmt.Errorf("[PEER_URLS] and [PEER_IDS] must have the same number of entries")
	}

	peers := make([]addition.Peer, len(urls))
	for i := range urls {
		peers[i] = addition.Peer{ID: ids[i], URL: urls[i]}
	}
	return peers, nil
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func hasDuplicates[T comparable](items []T) bool {
	seen := make(map[T]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			return true
		}
		seen[item] = struct{}{}
	}
	return false
}

type parseable interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

func parseRequired[T parseable](key string) (T, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		var zero T
		return zero, fmt.Errorf("[%s]: must be specified and non empty", key)
	}
	return parseValue[T](key, v)
}

func parseOptional[T parseable](key string, fallback T) (T, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	return parseValue[T](key, v)
}

func parseValue[T parseable](key, v string) (T, error) {
	var zero T
	bits := 64
	switch any(zero).(type) {
	case uint8:
		bits = 8
	case uint16:
		bits = 16
	case uint32:
		bits = 32
	}
	parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, bits)
	if err != nil {
		return zero, fmt.Errorf("[%s]: %w", key, err)
	}
	return T(parsed), nil
}
