// Package staging holds the ordered set of candidate upload files for an
// upload flow. The set is the single source of truth: every mutation
// rebuilds the transferable view from scratch instead of patching it.
package staging

import (
	"fmt"
	"strings"
)

// Policy is the validation contract applied on Replace. It is built from
// configuration once and passed in; the set never reads ambient state.
type Policy struct {
	AllowedTypes []string
	MaxFileSize  int64
	MaxFiles     int
}

// Allows reports whether a declared content type is acceptable.
func (p Policy) Allows(contentType string) bool {
	for _, t := range p.AllowedTypes {
		if strings.EqualFold(t, contentType) {
			return true
		}
	}
	return false
}

// StagedFile wraps one user-chosen file. Data is owned by the set and is
// only read when a submission payload is built.
type StagedFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// NoticeKind classifies the single user-facing notice a Replace may emit
// per constraint class.
type NoticeKind string

const (
	// NoticeInvalidFiles covers files dropped for type or size violations.
	NoticeInvalidFiles NoticeKind = "invalid_files"
	// NoticeTooManyFiles covers files dropped past the max count.
	NoticeTooManyFiles NoticeKind = "too_many_files"
)

// Notice reports how many files a Replace dropped and why. Validation
// never fails the call; it only shrinks the accepted set.
type Notice struct {
	Kind  NoticeKind
	Count int
}

// Message renders the user-facing text for the notice under the given
// policy, mirroring the storefront's upload alerts.
func (n Notice) Message(p Policy) string {
	switch n.Kind {
	case NoticeInvalidFiles:
		return fmt.Sprintf("有 %d 個文件不符合要求。僅允許 %s 格式，且每個文件大小不超過 %dMB。",
			n.Count, strings.Join(p.AllowedTypes, ", "), p.MaxFileSize/(1024*1024))
	case NoticeTooManyFiles:
		return fmt.Sprintf("最多只能選擇 %d 個文件，超過的部分將被忽略。", p.MaxFiles)
	default:
		return ""
	}
}

// Set is an insertion-ordered collection of staged files. Order is
// significant: removal is positional and persisted images are numbered
// img1, img2, … from it.
type Set struct {
	policy Policy
	files  []StagedFile
}

// NewSet returns an empty set bound to the given policy.
func NewSet(policy Policy) *Set {
	return &Set{policy: policy}
}

// Replace discards all previously staged files and stages the given ones.
// Files violating the type/size policy are dropped with a single
// invalid-files notice; files past MaxFiles are dropped in selection order
// with a single too-many notice.
func (s *Set) Replace(files []StagedFile) []Notice {
	var notices []Notice

	accepted := make([]StagedFile, 0, len(files))
	dropped := 0
	for _, f := range files {
		if !s.policy.Allows(f.ContentType) || f.Size > s.policy.MaxFileSize {
			dropped++
			continue
		}
		accepted = append(accepted, f)
	}
	if dropped > 0 {
		notices = append(notices, Notice{Kind: NoticeInvalidFiles, Count: dropped})
	}

	if s.policy.MaxFiles > 0 && len(accepted) > s.policy.MaxFiles {
		excess := len(accepted) - s.policy.MaxFiles
		accepted = accepted[:s.policy.MaxFiles]
		notices = append(notices, Notice{Kind: NoticeTooManyFiles, Count: excess})
	}

	s.files = accepted
	return notices
}

// RemoveAt drops the file at the given position, preserving the relative
// order of the rest.
func (s *Set) RemoveAt(index int) error {
	if index < 0 || index >= len(s.files) {
		return fmt.Errorf("staging: index %d out of range (%d staged)", index, len(s.files))
	}
	s.files = append(s.files[:index], s.files[index+1:]...)
	return nil
}

// Transferable rebuilds the full submission view from the current
// sequence. Callers get a copy; mutating it does not touch the set.
func (s *Set) Transferable() []StagedFile {
	out := make([]StagedFile, len(s.files))
	copy(out, s.files)
	return out
}

// Len returns the number of staged files.
func (s *Set) Len() int { return len(s.files) }

// Empty reports whether the staging area should show its placeholder.
func (s *Set) Empty() bool { return len(s.files) == 0 }

// Clear drops every staged file.
func (s *Set) Clear() { s.files = nil }
