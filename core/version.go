package core

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// A version records the document content as it was before an edit,
// together with a note and a patch towards the new content.
type DBVersion interface {
	DocumentID() int
	VersionNo() int // ascending, starts at 1
	Content() string
	Note() string
	Diff() string // patch from Content() to the content that replaced it
	AuthorID() int
	TsCreated() int64
}

var dmp = diffmatchpatch.New()

// DiffText returns a textual patch which transforms old into new.
// It is empty iff both contents are equal.
func DiffText(old, new string) string {
	if old == new {
		return ""
	}
	diffs := dmp.DiffMain(old, new, true)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.PatchToText(dmp.PatchMake(old, diffs))
}
