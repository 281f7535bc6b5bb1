package postgres

import (
	"time"

	"gorm.io/datatypes"
)

/*
 * 'Restaurant' is one entry of the restaurant catalog the host can draw a
 * round of candidates from. It is read-only for the session protocol.
 */
type Restaurant struct {
	ID        string         `gorm:"primaryKey;size:64;not null" json:"id"`
	Name      string         `gorm:"size:200;not null" json:"name"`
	Cuisine   string         `gorm:"size:100" json:"cuisine"`
	PriceTier string         `gorm:"size:4;index:idx_restaurants_price" json:"price"`
	Rating    float64        `gorm:"default:0;index:idx_restaurants_rating" json:"rating"`
	Reviews   int            `gorm:"default:0" json:"reviews"`
	City      string         `gorm:"size:100;not null;index:idx_restaurants_city" json:"city"`
	Proximity string         `gorm:"size:50" json:"distance"` // Free text, e.g. "0.4 mi"
	Tags      datatypes.JSON `gorm:"type:jsonb;default:'[]'" json:"tags"`
	ImageRef  string         `gorm:"size:500" json:"image"`
	MapsURI   *string        `gorm:"size:500" json:"googleMapsUri,omitempty"`
	CreatedAt time.Time      `gorm:"default:CURRENT_TIMESTAMP" json:"-"`
}
