package trace

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keelhq/warden/pkg/git"
	"github.com/keelhq/warden/pkg/tool"
)

// Builder assembles audit records from completed mutating operations.
type Builder struct {
	toolName    string
	toolVersion string
	logger      *zap.Logger

	// revision resolves the current VCS revision; swapped in tests.
	revision func() (string, bool)

	// now supplies record timestamps; swapped in tests.
	now func() time.Time
}

// NewBuilder creates a Builder stamping records with the given tool
// identity.
func NewBuilder(toolName, toolVersion string, logger *zap.Logger) *Builder {
	return &Builder{
		toolName:    toolName,
		toolVersion: toolVersion,
		logger:      logger,
		revision:    git.Revision,
		now:         time.Now,
	}
}

// Build constructs the record for one completed write or execution.
// intentID links the record back to the governing intent; sessionURL
// correlates it with the conversation that produced the change.
//
// When the executor supplied the written content, the modified block's
// range is hashed; with no explicit range the whole file is treated as
// the block. Results that name no file but carry a command, such as an
// authorized shell execution, produce a file-less operation record.
// A result with neither a path nor a command yields nil: there is
// nothing to attribute.
func (b *Builder) Build(res *tool.Result, sessionURL, intentID string) *Record {
	call := res.Call

	rec := &Record{
		Version:   SchemaVersion,
		ID:        uuid.NewString(),
		Timestamp: b.now().UTC().Format(time.RFC3339),
		Tool: &Tool{
			Name:    b.toolName,
			Version: b.toolVersion,
		},
	}

	if rev, ok := b.revision(); ok {
		rec.VCS = &VCS{Type: "git", Revision: rev}
	} else {
		b.logger.Debug("no VCS revision available for trace record")
	}

	conv := Conversation{
		URL: sessionURL,
		Contributor: &Contributor{
			Type:    ContributorAI,
			ModelID: res.ModelID,
		},
	}
	if intentID != "" {
		conv.Related = append(conv.Related, Related{Type: RelatedIntent, ID: intentID})
	}

	path := call.Path()
	if path == "" {
		command := call.Command()
		if command == "" {
			b.logger.Debug("result names no path or command, skipping trace record",
				zap.String("tool", call.Name),
			)
			return nil
		}
		rec.Operations = []Operation{{
			Tool:          call.Name,
			Command:       command,
			Conversations: []Conversation{conv},
		}}
		return rec
	}

	if r, ok := b.buildRange(res); ok {
		conv.Ranges = append(conv.Ranges, r)
	}

	rec.Files = []File{{
		Path:          path,
		Conversations: []Conversation{conv},
	}}

	return rec
}

// buildRange derives the attributed line range and its content hash from
// the executor result.
func (b *Builder) buildRange(res *tool.Result) (Range, bool) {
	content := res.WrittenContent
	if content == "" {
		content = res.Call.Content()
	}
	if content == "" {
		return Range{}, false
	}

	start, end := res.StartLine, res.EndLine
	if start == 0 || end == 0 {
		lines := SplitLines(content)
		start = 1
		end = len(lines)
		if end == 0 {
			end = 1
		}
		return Range{
			StartLine:   start,
			EndLine:     end,
			ContentHash: HashBlock(lines),
		}, true
	}

	return Range{
		StartLine:   start,
		EndLine:     end,
		ContentHash: HashRange(content, start, end),
	}, true
}
