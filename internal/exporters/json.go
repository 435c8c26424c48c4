package exporters

import (
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONFilename names a backup taken at t.
func JSONFilename(t time.Time) string {
	return fmt.Sprintf("library_backup_%s.json", t.UTC().Format("2006-01-02"))
}

// WriteJSON writes the backup indented by two spaces with a trailing
// newline.
func WriteJSON(w io.Writer, backup Backup) error {
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
