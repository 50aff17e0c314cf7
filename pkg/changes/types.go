package changes

import "time"

// SourceTypeGit is the source type tag handed to the ingestion queue alongside every batch of changes.
const SourceTypeGit = "git"

// Change is a single commit's contribution as seen by the change-tracking pipeline
type Change struct {
	Author        string    `json:"author"`
	Files         []string  `json:"files"`
	Comments      string    `json:"comments"`
	Revision      string    `json:"revision"`
	WhenTimestamp time.Time `json:"when_timestamp"`
	Branch        string    `json:"branch"`
	RevLink       string    `json:"revlink"`
	Repository    string    `json:"repository"`
	Project       string    `json:"project"`

	// Codebase is only set when the caller supplied one.
	Codebase *string `json:"codebase,omitempty"`
}

// Source describes where the changes of a push came from
type Source struct {
	// RepositoryURL is copied into Change.Repository.
	RepositoryURL string
	// Project may be empty.
	Project string
	// Codebase is attached to every change when non nil.
	Codebase *string
}
