package entities

type ActionKind string

const (
	ActionOpenListing ActionKind = "open_listing"
)

// ListingAction describes what the desktop integration does when the user activates a toast.
type ListingAction struct {
	Kind  ActionKind
	URL   string
	Title string
}
