package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/illarion/quickdb/internal/storage"
)

// Compact reclaims unused space in the data file
func Compact(opts Options) {
	env := OpenOrExit(opts)
	defer env.Close()

	if err := env.Compact(); err != nil {
		HandleError(err)
	}
}

func (e *Env) Compact() error {
	c, ok := e.Persistent.(storage.Compactor)
	if !ok {
		fmt.Fprintf(e.Out, "Nothing to compact for the %s driver\n", e.Config.Persistent.Driver)
		return nil
	}

	path := e.Config.Persistent.Path
	sizeBefore := diskSize(path)
	if err := c.Compact(); err != nil {
		return err
	}
	sizeAfter := diskSize(path)

	fmt.Fprintf(e.Out, "Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
	return nil
}

// diskSize is the size of a file, or the total of a directory's files
func diskSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return info.Size()
	}

	var total int64
	_ = filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			total += fi.Size()
		}
		return nil
	})
	return total
}

func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
