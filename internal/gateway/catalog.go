package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Locations lists a company's locations.
func (c *Client) Locations(ctx context.Context, companyID string) ([]Location, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/locations", url.Values{"companyId": {companyID}}, &raw); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	locations, err := decodeList(raw, locationFromFields)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// Vehicles lists a company's vehicles.
func (c *Client) Vehicles(ctx context.Context, companyID string) ([]Vehicle, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/vehicles", url.Values{"companyId": {companyID}}, &raw); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	vehicles, err := decodeList(raw, vehicleFromFields)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return vehicles, nil
}
