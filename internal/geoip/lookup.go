package geoip

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Database is an optional local MaxMind country database. A nil *Database
// is valid and answers nothing, so callers never branch on its presence.
type Database struct {
	reader *geoip2.Reader
}

func Open(path string) (*Database, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &Database{reader: r}, nil
}

// CountryCode returns the ISO code for an IP, or "" when the database has
// no answer.
func (d *Database) CountryCode(ip net.IP) string {
	if d == nil || d.reader == nil || ip == nil {
		return ""
	}
	record, err := d.reader.Country(ip)
	if err != nil {
		return ""
	}
	return record.Country.IsoCode
}

func (d *Database) Close() {
	if d != nil && d.reader != nil {
		d.reader.Close()
	}
}
