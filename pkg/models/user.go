package models

// ToolCredentials holds per-user third-party search credentials. All fields
// are optional; absence means the tool is unavailable for that user.
type ToolCredentials struct {
	SerpAPI string `json:"serpapi,omitempty"`
	Exa     string `json:"exa,omitempty"`
	Google  string `json:"google,omitempty"`
}

// ToolPreferences records per-user tool ordering choices.
type ToolPreferences struct {
	Search []string `json:"search,omitempty"`
}

// User is a registered account. ExternalID is the identity-provider id the
// auth layer resolves; Owner/CanSee/CanSend are the inverse index of the
// thread ACL fields and are maintained by thread mutations.
type User struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Email      string `json:"email"`

	Owner   []string `json:"owner"`
	CanSee  []string `json:"canSee"`
	CanSend []string `json:"canSend"`

	Friends          []string `json:"friends"`
	Blocked          []string `json:"blocked"`
	RequestedFriend  []string `json:"requestedFriend"`
	RequestingFriend []string `json:"requestingFriend"`

	OpenRouterKey string `json:"openRouterKey,omitempty"`
	DefaultModel  string `json:"defaultModel"`
	TitleModel    string `json:"titleModel"`

	Memories []string            `json:"memories"`
	Tools    map[string][]string `json:"tools"`

	ToolCredentials ToolCredentials `json:"toolCredentials"`
	ToolPreferences ToolPreferences `json:"toolPreferences"`
}

// Image is a stored image reference. Bytes live in the external file store;
// only the resolved URL and type are recorded here.
type Image struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Filename string `json:"filename,omitempty"`
}

// File is a stored (non-image) attachment reference.
type File struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Filename string `json:"filename"`
}
