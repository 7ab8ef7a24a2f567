package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-d database DSN (PostgreSQL URI on the server, SQLite path on the client)
//	-c/-config json file path with configs
//	-token-sign-key token signing key
//	-token-issuer token issuer name
//	-token-duration token duration (e.g., "1h", "30m")
//	-request-timeout inbound request timeout (e.g., "30s", "1m")
//	-local-address base URL of the local-network sync server
//	-cloud-address base URL of the cloud sync server
//	-probe-timeout endpoint health probe timeout
//	-email client account email
//	-password client account password
//	-device-id client device identifier
//	-mode connection mode: dual, local-only or cloud-only
//	-sync-interval periodic full sync interval
//	-probe-interval endpoint probe interval
//	-drain-interval offline queue drain retry interval
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var databaseDSN string
	var jsonConfigPath string
	var tokenSignKey string
	var tokenIssuer string
	var tokenDuration time.Duration
	var requestTimeout time.Duration
	var localAddress string
	var cloudAddress string
	var probeTimeout time.Duration
	var email string
	var password string
	var deviceID string
	var mode string
	var syncInterval time.Duration
	var probeInterval time.Duration
	var drainInterval time.Duration

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	flag.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	flag.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 1h, 30m)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.StringVar(&localAddress, "local-address", "", "Local sync server base URL")
	flag.StringVar(&cloudAddress, "cloud-address", "", "Cloud sync server base URL")
	flag.DurationVar(&probeTimeout, "probe-timeout", 0, "Endpoint probe timeout")
	flag.StringVar(&email, "email", "", "Account email")
	flag.StringVar(&password, "password", "", "Account password")
	flag.StringVar(&deviceID, "device-id", "", "Device identifier")
	flag.StringVar(&mode, "mode", "", "Connection mode: dual, local-only, cloud-only")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Full sync interval")
	flag.DurationVar(&probeInterval, "probe-interval", 0, "Endpoint probe interval")
	flag.DurationVar(&drainInterval, "drain-interval", 0, "Offline queue drain interval")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			TokenSignKey:  tokenSignKey,
			TokenIssuer:   tokenIssuer,
			TokenDuration: tokenDuration,
			Email:         email,
			Password:      password,
			DeviceID:      deviceID,
			Mode:          mode,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Adapter: Adapter{
			LocalAddress:   localAddress,
			CloudAddress:   cloudAddress,
			ProbeTimeout:   probeTimeout,
			RequestTimeout: 0,
		},
		Workers: Workers{
			SyncInterval:  syncInterval,
			ProbeInterval: probeInterval,
			DrainInterval: drainInterval,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
