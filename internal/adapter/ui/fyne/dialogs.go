package fyne

import (
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
)

// mediaExtensions are offered by the open dialog.
var mediaExtensions = []string{
	".mkv", ".mp4", ".m4v", ".webm", ".avi", ".mov", ".ts", ".m2ts",
	".mp3", ".flac", ".ogg", ".opus", ".m4a", ".wav",
}

// FileDialog is a helper for creating media open dialogs.
type FileDialog struct {
	window   fyne.Window
	callback func(string)
	logger   *slog.Logger
}

// NewFileDialog creates a new file dialog.
func NewFileDialog(window fyne.Window, callback func(string), logger *slog.Logger) *FileDialog {
	return &FileDialog{
		window:   window,
		callback: callback,
		logger:   logger,
	}
}

// Show displays the file dialog.
func (d *FileDialog) Show() {
	open := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			d.logger.Error("file dialog error", slog.Any("error", err))
			return
		}
		if reader == nil {
			return // User cancelled
		}
		// mpv opens the file itself
		filePath := reader.URI().Path()
		_ = reader.Close()

		if d.callback != nil {
			d.callback(filePath)
		}
	}, d.window)
	open.SetFilter(storage.NewExtensionFileFilter(mediaExtensions))
	open.Show()
}
