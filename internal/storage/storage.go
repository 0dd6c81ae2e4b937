package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Uploader archives candidate audio. storedPath is an opaque reference kept
// alongside the transcript, not a public URL.
type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

// AudioObjectName builds the archive key for one voice turn.
func AudioObjectName(sessionID string, at time.Time, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "webm"
	}
	return path.Join("interviews", sessionID, fmt.Sprintf("%d.%s", at.UTC().UnixMilli(), ext))
}
