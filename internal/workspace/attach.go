package workspace

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/yuutai-cli/internal/document"
	"github.com/sells-group/yuutai-cli/internal/resilience"
)

// AttachState is a step of the attachment sequence.
type AttachState string

const (
	StatePending       AttachState = "pending"
	StateInitiated     AttachState = "initiated"
	StateSent          AttachState = "sent"
	StateBound         AttachState = "bound"
	StateFallbackNoted AttachState = "fallback_noted"
	StateFailed        AttachState = "failed"
)

// AttachOutcome reports how far an attachment got.
type AttachOutcome struct {
	State AttachState
	// Reached is the last upload state completed before a failure.
	Reached  AttachState
	UploadID string
	Err      error
	Deleted  bool
}

// OK reports whether the document is referenced from the row, either as a
// bound file or as a fallback note.
func (o AttachOutcome) OK() bool {
	return o.State == StateBound || o.State == StateFallbackNoted
}

// Attach uploads the file at path and binds it to the PDFファイル column of
// rowID. When any upload step fails a note describing the file is appended
// to the row page instead. The local file is removed only once the row
// references it.
func (w *Workspace) Attach(ctx context.Context, rowID, path string) AttachOutcome {
	out := AttachOutcome{State: StatePending}
	name := filepath.Base(path)
	log := zap.L().With(zap.String("row_id", rowID), zap.String("file", name))

	info, err := document.Inspect(path)
	if err != nil {
		out.State = StateFailed
		out.Err = err
		log.Error("attach: local file unavailable", zap.Error(err))
		return out
	}

	ctype := contentType(name)

	out.UploadID, err = w.client.CreateFileUpload(ctx, name, ctype)
	if err == nil {
		out.State = StateInitiated
		err = w.client.SendFileUpload(ctx, out.UploadID, path, name, ctype)
	}
	if err == nil {
		out.State = StateSent
		err = w.client.AttachFileUpload(ctx, rowID, PropFile, name, out.UploadID)
	}
	if err == nil {
		out.State = StateBound
		log.Info("attach: file bound", zap.String("upload_id", out.UploadID), zap.Int64("bytes", info.Size))
	} else {
		out.Reached = out.State
		out.Err = err
		log.Warn("attach: upload failed, writing fallback note",
			zap.String("reached", string(out.Reached)),
			zap.String("class", resilience.Class(err)),
			zap.Error(err),
		)

		if nerr := w.client.AppendChildren(ctx, rowID, FallbackBlocks(info)); nerr != nil {
			out.State = StateFailed
			out.Err = eris.Wrap(nerr, "workspace: append fallback note")
			log.Error("attach: fallback note failed, keeping local file", zap.Error(nerr))
			return out
		}
		out.State = StateFallbackNoted
	}

	if rerr := os.Remove(path); rerr != nil {
		log.Warn("attach: could not remove local file", zap.String("path", path), zap.Error(rerr))
	} else {
		out.Deleted = true
	}
	return out
}

// FallbackBlocks builds the note appended to a row whose document could not
// be uploaded.
func FallbackBlocks(info document.Info) []notionapi.Block {
	name := filepath.Base(info.Path)
	icon := notionapi.Emoji("📎")

	lines := []string{
		"ファイルサイズ: " + groupDigits(info.Size) + " bytes",
		"ローカルパス: " + info.Path,
	}
	if info.Pages > 0 {
		lines = append(lines, fmt.Sprintf("ページ数: %d", info.Pages))
	}

	return []notionapi.Block{
		&notionapi.CalloutBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeCallout,
			},
			Callout: notionapi.Callout{
				Icon: &notionapi.Icon{Type: "emoji", Emoji: &icon},
				RichText: []notionapi.RichText{{
					Type:        notionapi.ObjectTypeText,
					Text:        &notionapi.Text{Content: "物理ファイル: " + name},
					Annotations: &notionapi.Annotations{Bold: true, Color: notionapi.ColorDefault},
				}},
			},
		},
		&notionapi.ParagraphBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeParagraph,
			},
			Paragraph: notionapi.Paragraph{
				RichText: richText(strings.Join(lines, "\n")),
			},
		},
	}
}

func contentType(name string) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); t != "" {
		return t
	}
	return "application/pdf"
}

var jaPrinter = message.NewPrinter(language.Japanese)

// groupDigits formats n with comma thousands separators.
func groupDigits(n int64) string {
	return jaPrinter.Sprintf("%d", n)
}
