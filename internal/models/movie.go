package models

import "time"

// Movie represents a single catalogue entry.
type Movie struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Genre        string    `json:"genre"`
	Duration     int       `json:"duration"` // in minutes
	Poster       string    `json:"poster"`   // URL path of the uploaded poster
	Language     string    `json:"language"`
	Availability string    `json:"availability,omitempty"`
	RatingAvg    float64   `json:"ratingAvg"`
	RatingCount  int       `json:"ratingCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Genres lists the accepted genre values.
var Genres = []string{
	"Action", "Adventure", "Animation", "Comedy", "Drama", "Family",
	"History", "Romance", "Sci-Fi", "Sport", "other",
}

// ValidGenre reports whether g is one of the accepted genres.
func ValidGenre(g string) bool {
	for _, v := range Genres {
		if g == v {
			return true
		}
	}
	return false
}
