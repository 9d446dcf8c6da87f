package domain

// VideoRef identifies the YouTube video a translate request came from.
// It is created when the page button is clicked and passed by value
// through the message bridge and viewer URL; it is never mutated.
type VideoRef struct {
	VideoID    string `json:"videoId"`
	VideoTitle string `json:"videoTitle"`
	FullURL    string `json:"fullUrl"`
}
