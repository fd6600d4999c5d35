package lsp

import (
	"errors"
	"fmt"
	"slices"

	itext "github.com/luaowl/luacore/internal/text"
)

// applyContentChanges folds a didChange notification's content-change list
// onto src and returns the resulting full document text. Unlike the
// original's incremental-reparse path, every edit here is applied to a
// plain byte slice and handed to query.Workspace.FileUpdate for a full
// reparse: the syntax package has no incremental-edit API to feed.
func applyContentChanges(src []byte, changes []TextDocumentContentChangeEvent) ([]byte, error) {
	cur := slices.Clone(src)
	for _, ch := range changes {
		if ch.Range == nil {
			cur = []byte(ch.Text)
			continue
		}
		li := itext.NewLineIndex(cur)
		start, end, err := utf16RangeToOffsets(li, *ch.Range)
		if err != nil {
			return nil, err
		}
		next, err := applySingleChange(cur, start, end, ch.Text)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

func applySingleChange(src []byte, start, end itext.ByteOffset, newText string) ([]byte, error) {
	return itext.ApplyEdits(src, []itext.ByteEdit{{
		Span:    itext.Span{Start: start, End: end},
		NewText: []byte(newText),
	}})
}

func utf16RangeToOffsets(li *itext.LineIndex, r Range) (itext.ByteOffset, itext.ByteOffset, error) {
	start, err := li.UTF16PositionToOffset(itext.UTF16Position{Line: r.Start.Line, Character: r.Start.Character})
	if err != nil {
		return 0, 0, fmt.Errorf("change range start: %w", err)
	}
	end, err := li.UTF16PositionToOffset(itext.UTF16Position{Line: r.End.Line, Character: r.End.Character})
	if err != nil {
		return 0, 0, fmt.Errorf("change range end: %w", err)
	}
	if end < start {
		return 0, 0, errors.New("change range end before start")
	}
	return start, end, nil
}
