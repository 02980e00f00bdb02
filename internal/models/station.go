package models

// HourlyProfile maps a weekday key ("monday".."friday") to 24 density
// values (0-100), one per hour of the day. Index 0 is midnight.
type HourlyProfile map[string][]int

type Station struct {
	ID   int    `gorm:"primaryKey" json:"id"`
	Name string `gorm:"unique;not null" json:"name"`
	// Order is the station's position along the line, so the map renders
	// in geographic sequence rather than insertion order.
	Order int `gorm:"column:line_order;unique;not null" json:"order"`

	LiveStatus   string `gorm:"default:Data not available" json:"live_status"`
	CrowdLevelNB string `gorm:"default:light" json:"crowd_level_nb"`
	CrowdLevelSB string `gorm:"default:light" json:"crowd_level_sb"`

	TransitConnections []string `gorm:"serializer:json" json:"transit_connections"`

	HistoricalNB HourlyProfile `gorm:"serializer:json" json:"historical_nb"`
	HistoricalSB HourlyProfile `gorm:"serializer:json" json:"historical_sb"`
}
