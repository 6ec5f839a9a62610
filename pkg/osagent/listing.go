package osagent

import (
	"fmt"
	"os"
)

// listDirectory enumerates path with os.ReadDir. Entries whose metadata
// disappears between the scan and the stat are skipped.
func listDirectory(path string) ([]Entry, error) {
	dirents, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		info, err := d.Info()
		if err != nil {
			continue
		}

		entryType := EntryTypeOther
		mode := info.Mode()
		switch {
		case mode.IsRegular():
			entryType = EntryTypeFile
		case mode.IsDir():
			entryType = EntryTypeDir
		case mode&os.ModeSymlink != 0:
			entryType = EntryTypeSymlink
		}

		entries = append(entries, Entry{
			Name:     d.Name(),
			Type:     entryType,
			Size:     info.Size(),
			Mode:     mode.String(),
			Modified: info.ModTime().Unix(),
		})
	}

	return entries, nil
}
