package geoip

import (
	"net"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/oschwald/geoip2-golang"

	"lark/internal/config"
)

var (
	mu     sync.Mutex
	reader *geoip2.Reader
	path   string
)

// CountryCode returns the ISO country code for ip, or "" when no GeoIP
// database is configured or the address is unknown. Lookups are best-effort
// decoration for the admin console and never fail a request.
func CountryCode(ip string) string {
	r := getReader()
	if r == nil {
		return ""
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}

	country, err := r.Country(parsed)
	if err != nil {
		return ""
	}
	return country.Country.IsoCode
}

// Close releases the open database, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if reader != nil {
		_ = reader.Close()
		reader = nil
		path = ""
	}
}

func getReader() *geoip2.Reader {
	dbPath := config.GetConfig().GeoIP.DatabasePath
	if dbPath == "" {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	if reader != nil && path == dbPath {
		return reader
	}

	if reader != nil {
		_ = reader.Close()
		reader = nil
	}

	r, err := geoip2.Open(dbPath)
	if err != nil {
		log.Warn("GeoIP database could not be opened", "path", dbPath, "error", err)
		return nil
	}

	reader = r
	path = dbPath
	return reader
}
