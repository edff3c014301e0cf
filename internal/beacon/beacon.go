// Package beacon delivers iBeacon sighting events from an MQTT advert
// stream into the presence registry. Adverts arrive roughly as sighted,
// duplicates are expected, and unknown beacons are dropped downstream.
package beacon

import (
	"encoding/json"
	"fmt"
)

// ID identifies an iBeacon by its advertisement triplet. Values are kept
// as opaque strings exactly as the scanner reports them.
type ID struct {
	UUID  string `json:"uuid"`
	Major string `json:"major"`
	Minor string `json:"minor"`
}

// String renders the identity for logs.
func (id ID) String() string {
	return fmt.Sprintf("%s/%s/%s", id.UUID, id.Major, id.Minor)
}

// ParseAdvert decodes a scanner advert payload into a beacon identity.
func ParseAdvert(payload []byte) (ID, error) {
	var id ID
	if err := json.Unmarshal(payload, &id); err != nil {
		return ID{}, fmt.Errorf("malformed advert: %w", err)
	}
	if id.UUID == "" || id.Major == "" || id.Minor == "" {
		return ID{}, fmt.Errorf("advert missing identity fields")
	}
	return id, nil
}
