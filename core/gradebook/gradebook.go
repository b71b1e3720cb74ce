// Package gradebook bundles every named blob into one portable document and manages saved classes.
package gradebook

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/deadline"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/grade"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/logbook"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/score"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/settings"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/core/student"
)

const (
	// Version is written to every exported document. Imports accept any 2.x version.
	Version = "2.0"
	// Extension is the file extension of exported gradebooks.
	Extension = ".neagb"
)

var ErrUnsupportedVersion = errors.New("unsupported gradebook version")

// Document is the exported gradebook. Each blob is carried verbatim; absent blobs are omitted.
type Document struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Students   json.RawMessage `json:"students,omitempty"`
	Scores     json.RawMessage `json:"scores,omitempty"`
	Settings   json.RawMessage `json:"settings,omitempty"`
	Deadlines  json.RawMessage `json:"deadlines,omitempty"`
	LogEntries json.RawMessage `json:"log_entries,omitempty"`
	Classes    json.RawMessage `json:"classes,omitempty"`
}

// blobs returns pointers to the blob fields keyed by blob key.
func (doc *Document) blobs() map[string]*json.RawMessage {
	return map[string]*json.RawMessage{
		core.KeyStudents:   &doc.Students,
		core.KeyScores:     &doc.Scores,
		core.KeySettings:   &doc.Settings,
		core.KeyDeadlines:  &doc.Deadlines,
		core.KeyLogEntries: &doc.LogEntries,
		core.KeyClasses:    &doc.Classes,
	}
}

// blobShapes decodes a blob into its typed form to check its shape, then checks its records.
var blobShapes = map[string]func(data []byte) error{
	core.KeyStudents: func(data []byte) error {
		var v []student.Student
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		return checkStudents(v)
	},
	core.KeyScores: func(data []byte) error {
		var v score.Scores
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		return checkScores(v)
	},
	core.KeySettings:   func(data []byte) error { var v settings.Settings; return json.Unmarshal(data, &v) },
	core.KeyDeadlines:  func(data []byte) error { var v []deadline.Deadline; return json.Unmarshal(data, &v) },
	core.KeyLogEntries: func(data []byte) error { var v []logbook.Entry; return json.Unmarshal(data, &v) },
	core.KeyClasses: func(data []byte) error {
		var v []SavedClass
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		for _, c := range v {
			if err := checkStudents(c.Students); err != nil {
				return recordError{fmt.Sprintf("class %q: %s", c.Name, err)}
			}
			if err := checkScores(c.Scores); err != nil {
				return recordError{fmt.Sprintf("class %q: %s", c.Name, err)}
			}
		}
		return nil
	},
}

// recordError is a well formed blob holding an invalid record.
type recordError struct{ msg string }

func (e recordError) Error() string { return e.msg }

// checkStudents rejects students that could not have been created through the roster:
// blank id, name or group, a target outside 1-9 and ids used twice.
func checkStudents(students []student.Student) error {
	seen := make(map[string]bool, len(students))
	for i, s := range students {
		row := i + 1
		switch {
		case strings.TrimSpace(s.ID) == "":
			return recordError{fmt.Sprintf("student %d: id is required", row)}
		case strings.TrimSpace(s.Name) == "":
			return recordError{fmt.Sprintf("student %d: name is required", row)}
		case strings.TrimSpace(s.Group) == "":
			return recordError{fmt.Sprintf("student %d: group is required", row)}
		case s.TargetGrade < grade.Min || s.TargetGrade > grade.Max:
			return recordError{fmt.Sprintf("student %d: target grade must be between 1 and 9", row)}
		case seen[s.ID]:
			return recordError{fmt.Sprintf("student %d: duplicate id %q", row, s.ID)}
		}
		seen[s.ID] = true
	}
	return nil
}

func checkScores(scores score.Scores) error {
	for id, ss := range scores {
		for cat, mark := range ss {
			if mark < 0 {
				return recordError{fmt.Sprintf("student %q: mark for %q cannot be negative", id, cat)}
			}
		}
	}
	return nil
}

// CheckVersion accepts versions whose major part is the current major.
func CheckVersion(v string) error {
	major := strings.SplitN(strings.TrimSpace(v), ".", 2)[0]
	n, err := strconv.Atoi(major)
	if err != nil || n != 2 {
		return errors.Wrapf(ErrUnsupportedVersion, "%q", v)
	}
	return nil
}

// Decode parses and checks a gradebook document without importing it.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, core.NewValidationError(errors.Wrap(err, "invalid gradebook file"))
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Validate checks the version and the shape of every present blob.
func (doc *Document) Validate() error {
	if err := CheckVersion(doc.Version); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "version", Error: err.Error()})
	}
	for _, key := range core.BlobKeys {
		raw := *doc.blobs()[key]
		if len(raw) == 0 {
			continue
		}
		if err := blobShapes[key](raw); err != nil {
			if rErr, ok := err.(recordError); ok {
				return core.NewValidationError(rErr, core.FieldError{Field: key, Error: rErr.msg})
			}
			msg := "invalid " + key + " data"
			return core.NewValidationError(errors.Wrap(err, msg), core.FieldError{Field: key, Error: msg})
		}
	}
	return nil
}

// ImportResult lists the blobs written by Import.
type ImportResult struct {
	Version  string   `json:"version"`
	Imported []string `json:"imported"`
}

type (
	Service interface {
		Export(ctx context.Context) (Document, error)
		Import(ctx context.Context, doc Document) (ImportResult, error)

		SaveClass(ctx context.Context, name string) (ClassSummary, error)
		ListClasses(ctx context.Context) ([]ClassSummary, error)
		LoadClass(ctx context.Context, name string) (ClassSummary, error)
		DeleteClass(ctx context.Context, name string) error
	}

	service struct {
		store    core.BlobStore
		hub      *core.Hub
		classes  *core.Bucket[[]SavedClass]
		students *core.Bucket[[]student.Student]
		scores   *core.Bucket[score.Scores]
	}
)

var _ Service = (*service)(nil)

func NewService(store core.BlobStore, hub *core.Hub) Service {
	return &service{
		store:    store,
		hub:      hub,
		classes:  core.NewBucket(store, hub, core.KeyClasses, func() []SavedClass { return []SavedClass{} }),
		students: core.NewBucket(store, hub, core.KeyStudents, func() []student.Student { return []student.Student{} }),
		scores:   core.NewBucket(store, hub, core.KeyScores, func() score.Scores { return score.Scores{} }),
	}
}

// Export reads every blob verbatim. Blobs that were never written are left out.
func (svc *service) Export(ctx context.Context) (Document, error) {
	doc := Document{Version: Version, ExportedAt: core.NowFunc().UTC()}
	blobs := doc.blobs()
	for _, key := range core.BlobKeys {
		lock := svc.hub.Lock(key)
		lock.RLock()
		data, err := svc.store.Get(ctx, key)
		lock.RUnlock()

		if err != nil {
			if errors.Cause(err) == core.ErrBlobNotFound {
				continue
			}
			return Document{}, errors.Wrapf(err, "exporting %s", key)
		}
		*blobs[key] = json.RawMessage(data)
	}
	return doc, nil
}

// Import validates doc then writes every blob it carries, replacing current data.
func (svc *service) Import(ctx context.Context, doc Document) (ImportResult, error) {
	if err := doc.Validate(); err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Version: doc.Version, Imported: []string{}}
	blobs := doc.blobs()
	for _, key := range core.BlobKeys {
		raw := *blobs[key]
		if len(raw) == 0 {
			continue
		}
		lock := svc.hub.Lock(key)
		lock.Lock()
		err := svc.store.Put(ctx, key, raw)
		lock.Unlock()

		if err != nil {
			return res, errors.Wrapf(err, "importing %s", key)
		}
		svc.hub.Publish(key)
		res.Imported = append(res.Imported, key)
	}
	return res, nil
}
