package registry

// Sensor is one entry in the sensor registry document.
// Name is the unique key within the registry; Country, City and Street feed
// the AQICN candidate URLs. Latitude/Longitude are nil until a sync has
// resolved them.
type Sensor struct {
	Name      string   `yaml:"name" json:"name"`
	Country   string   `yaml:"country" json:"country"`
	City      string   `yaml:"city" json:"city"`
	Street    string   `yaml:"street" json:"street"`
	AqicnURL  string   `yaml:"aqicn_url" json:"aqicn_url"`
	CSVFile   string   `yaml:"csv_file,omitempty" json:"csv_file,omitempty"`
	Latitude  *float64 `yaml:"latitude,omitempty" json:"latitude"`
	Longitude *float64 `yaml:"longitude,omitempty" json:"longitude"`
}

// Document is the parsed form of a sensor registry document. Registry
// membership is curated by hand; a sync run only ever touches coordinates.
type Document struct {
	Sensors []Sensor `yaml:"sensors" json:"sensors"`
}

// Coordinates is a resolved geo pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CoordinateUpdate is one sensor's pending coordinate rewrite. The written
// flags record whether the patcher actually found and replaced each field
// line; a completed patch requires both.
type CoordinateUpdate struct {
	Latitude  float64
	Longitude float64

	latWritten bool
	lonWritten bool
}
