package entities

// SearchSpec is one configured search page to poll.
type SearchSpec struct {
	Name     string
	URL      string
	Platform string
	// Wish is an optional free-text description used by the relevance filter.
	Wish string
}

func (s SearchSpec) DisplayName() string {
	if s.Name == "" {
		return "Unnamed Search"
	}
	return s.Name
}
