package changes

import (
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"
)

var branchRef = regexp.MustCompile(`^refs/heads/(.+)$`)

// Extract converts a push payload into one Change per distinct commit pushed to a branch.
//
// Pushes to anything other than a branch, branch deletions and non distinct commits produce
// no changes. Any missing required field or unparsable timestamp fails the whole extraction
// and no changes are returned.
func Extract(l logrus.FieldLogger, payload *PushPayload, src Source) ([]Change, error) {
	if payload == nil || payload.Ref == nil {
		return nil, missing("ref")
	}
	refname := *payload.Ref

	match := branchRef.FindStringSubmatch(refname)
	if match == nil {
		l.WithField("ref", refname).Infof("Ignoring refname %q: not a branch", refname)
		return []Change{}, nil
	}
	branch := match[1]
	l = l.WithField("branch", branch)

	if payload.IsDeleted() {
		l.Infof("Branch %q deleted, ignoring", branch)
		return []Change{}, nil
	}
	if payload.Commits == nil {
		return nil, missing("commits")
	}

	commits := *payload.Commits
	changes := make([]Change, 0, len(commits))
	for i := range commits {
		commit := &commits[i]
		if commit.ID == nil {
			return nil, missing(fmt.Sprintf("commits[%d].id", i))
		}
		if commit.IsNonDistinct() {
			l.WithField("revision", *commit.ID).Infof("Commit %s is a non-distinct commit, ignoring...", *commit.ID)
			continue
		}
		change, err := toChange(commit, i, branch, src)
		if err != nil {
			return nil, err
		}
		l.WithField("revision", change.Revision).Infof("New revision: %s", shortSha(change.Revision))
		changes = append(changes, change)
	}
	return changes, nil
}

func toChange(commit *CommitPayload, index int, branch string, src Source) (Change, error) {
	field := func(name string) error {
		return missing(fmt.Sprintf("commits[%d].%s", index, name))
	}
	files := commit.Files()

	if commit.Timestamp == nil {
		return Change{}, field("timestamp")
	}
	when, err := ParseTimestamp(*commit.Timestamp)
	if err != nil {
		return Change{}, &TimestampParseError{Revision: *commit.ID, Timestamp: *commit.Timestamp, Err: err}
	}

	switch {
	case commit.Author == nil:
		return Change{}, field("author")
	case commit.Author.Name == nil:
		return Change{}, field("author.name")
	case commit.Author.Email == nil:
		return Change{}, field("author.email")
	case commit.Message == nil:
		return Change{}, field("message")
	case commit.URL == nil:
		return Change{}, field("url")
	}

	change := Change{
		Author:        fmt.Sprintf("%s <%s>", *commit.Author.Name, *commit.Author.Email),
		Files:         files,
		Comments:      *commit.Message,
		Revision:      *commit.ID,
		WhenTimestamp: when,
		Branch:        branch,
		RevLink:       *commit.URL,
		Repository:    src.RepositoryURL,
		Project:       src.Project,
	}
	if src.Codebase != nil {
		codebase := *src.Codebase
		change.Codebase = &codebase
	}
	return change, nil
}

func shortSha(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
