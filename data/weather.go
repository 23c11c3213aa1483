package data

// WeatherData is one current-conditions snapshot. Values are trusted as provided.
type WeatherData struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	Pressure    float64 `json:"pressure"`
	Visibility  float64 `json:"visibility"`
	UVIndex     float64 `json:"uvIndex"`
	Icon        string  `json:"icon"`
}

// ForecastData is one forecast day. Date is a calendar date (2006-01-02).
type ForecastData struct {
	Date      string  `json:"date"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Condition string  `json:"condition"`
	Icon      string  `json:"icon"`
	Humidity  float64 `json:"humidity"`
	WindSpeed float64 `json:"windSpeed"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

const DateFormat = "2006-01-02"
