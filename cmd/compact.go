package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/safelist/internal/storage"
)

// Compact compacts a bolt vault to reclaim unused space
func Compact(_ context.Context, a *App) error {
	sl, err := a.openExisting()
	if err != nil {
		return err
	}

	sizeBefore, err := fileSize(sl.Path())
	if err != nil {
		return err
	}
	if err := sl.Compact(); err != nil {
		return err
	}
	sizeAfter, err := fileSize(sl.Path())
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "Compacted: %s -> %s\n", formatSize(sizeBefore), formatSize(sizeAfter))
	return nil
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", storage.ErrIO, err)
	}
	return info.Size(), nil
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
