package catalog

// ItemSummary is one entry of a listing or type-membership response.
type ItemSummary struct {
	Name      string `json:"name"`
	Reference string `json:"url"`
}

// ItemDetail is the normalized projection of a single Pokémon lookup.
type ItemDetail struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	BaseExperience *int     `json:"base_experience"`
	Types          []string `json:"types"`
	SpriteURL      *string  `json:"sprite_url"`
}

// Page is one page of the paginated listing.
type Page struct {
	TotalCount     int           `json:"count"`
	NextCursor     *string       `json:"next"`
	PreviousCursor *string       `json:"previous"`
	Items          []ItemSummary `json:"results"`
}
