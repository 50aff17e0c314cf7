package changes

// PushPayload is the subset of a push webhook body that changes are built from.
//
// Keys that may be missing are pointers so that an absent key can be told apart
// from an empty value.
type PushPayload struct {
	Ref        *string          `json:"ref"`
	Deleted    *bool            `json:"deleted,omitempty"`
	Repository *Repository      `json:"repository"`
	Commits    *[]CommitPayload `json:"commits"`
}

// Repository is the repository section of a push payload
type Repository struct {
	Name     *string `json:"name"`
	URL      *string `json:"url"`
	FullName string  `json:"full_name,omitempty"`
}

// CommitPayload is one entry of the commits list of a push payload
type CommitPayload struct {
	ID        *string  `json:"id"`
	Distinct  *bool    `json:"distinct,omitempty"`
	Message   *string  `json:"message"`
	Timestamp *string  `json:"timestamp"`
	URL       *string  `json:"url"`
	Author    *Author  `json:"author"`
	Added     []string `json:"added,omitempty"`
	Modified  []string `json:"modified,omitempty"`
	Removed   []string `json:"removed,omitempty"`
}

// Author identifies who wrote a commit
type Author struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// IsDeleted returns true if the push deleted the ref
func (p *PushPayload) IsDeleted() bool {
	return p.Deleted != nil && *p.Deleted
}

// IsNonDistinct returns true only when the commit is explicitly marked as not distinct,
// i.e. it was already reported by an earlier push or arrived through a merge.
func (c *CommitPayload) IsNonDistinct() bool {
	return c.Distinct != nil && !*c.Distinct
}

// Files returns the added, modified and removed paths in that order
func (c *CommitPayload) Files() []string {
	files := make([]string, 0, len(c.Added)+len(c.Modified)+len(c.Removed))
	files = append(files, c.Added...)
	files = append(files, c.Modified...)
	files = append(files, c.Removed...)
	return files
}
