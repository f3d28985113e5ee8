package models

// Reviews holds the review figures shown on a place's detail pane.
// Both values are kept as text; either may be empty.
type Reviews struct {
	Count   string `json:"Count"`
	Average string `json:"Average"`
}

// Listing is one place scraped from a map search. The JSON keys match the
// output file format and must not change between runs.
type Listing struct {
	Name        string   `json:"Name"`
	Address     string   `json:"Address"`
	Phone       string   `json:"Phone Number"`
	URL         string   `json:"URL"`
	Hours       string   `json:"Hours of Operation"`
	Reviews     Reviews  `json:"Reviews"`
	SocialLinks []string `json:"Social Media Links"`
}

// InsightReport holds the figures computed over the records added by one run.
type InsightReport struct {
	TotalPlaces   int
	WithPhone     int
	WithHours     int
	WithSocial    int
	RatedPlaces   int
	AverageRating float64
	TotalReviews  int
	TopRated      []*RatedPlace
}

// RatedPlace pairs a listing with its parsed review figures.
type RatedPlace struct {
	Listing     *Listing
	Rating      float64
	ReviewCount int
}
