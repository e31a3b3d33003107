package domain

// Viewer is the person looking at the post. It is injected into the engine
// rather than read from ambient state.
type Viewer struct {
	ID            string
	Username      string
	Authenticated bool
}

// Anonymous is the viewer used when no valid access token is present
var Anonymous = Viewer{}
