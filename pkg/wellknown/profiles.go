// Package wellknown carries the application profiles that ship with stock
// ufw installs, for hosts where /etc/ufw/applications.d is not readable.
package wellknown

import (
	_ "embed"
	"log"
	"strings"

	"ufw-inspector/internal/model"
	"ufw-inspector/internal/parser"
)

//go:embed profiles.ini
var profilesData []byte

var stock model.ApplicationProfile

func init() {
	var err error
	stock, err = parser.ParseProfileText("wellknown/profiles.ini", profilesData)
	if err != nil {
		log.Fatalf("Failed to parse embedded profiles.ini: %v", err)
	}
	if errs := model.Errors(stock.Entries); len(errs) > 0 {
		log.Fatalf("Embedded profiles.ini has invalid entries: %v", errs)
	}
}

// Profile returns the stock profiles.
func Profile() model.ApplicationProfile {
	return stock
}

// Lookup finds a stock profile entry by name, ignoring case.
func Lookup(name string) (model.ApplicationEntry, bool) {
	for _, e := range model.Values(stock.Entries) {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return model.ApplicationEntry{}, false
}

// Catalog returns a new catalog seeded with the stock profiles. Profiles
// added afterwards replace stock entries of the same name.
func Catalog() *parser.Catalog {
	c := parser.NewCatalog()
	c.Add(stock)
	return c
}
