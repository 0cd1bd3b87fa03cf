package entity

// CourierArea is a delivery area as a courier's API lists it. The id is what
// a parcel booking expects as its area id.
type CourierArea struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	DivisionName string `json:"division_name,omitempty"`
	ZoneID       int    `json:"zone_id,omitempty"`
}
