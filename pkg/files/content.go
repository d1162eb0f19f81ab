package files

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/inkwellnotes/inkwell/pkg/errcodes"
)

// checkText rejects content that sniffs as anything other than text. Empty
// content is a valid empty note.
func checkText(content []byte) error {
	if len(content) == 0 {
		return nil
	}
	mtype := mimetype.Detect(content)
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return nil
		}
	}
	return errcodes.BinaryContent(mtype.String())
}
