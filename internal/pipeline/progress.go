package pipeline

import (
	"fmt"
	"time"
)

// ProgressTracker tracks progress through a batch of files
type ProgressTracker struct {
	totalBytes int64
	totalFiles int
	doneBytes  int64
	doneFiles  int
	startTime  time.Time
}

// NewProgressTracker creates a tracker for files files totalling totalBytes
func NewProgressTracker(totalBytes int64, files int) *ProgressTracker {
	return &ProgressTracker{
		totalBytes: totalBytes,
		totalFiles: files,
		startTime:  time.Now(),
	}
}

// Progress holds current progress information
type Progress struct {
	FilesDone   int
	FilesTotal  int
	Percentage  float64
	Elapsed     time.Duration
	ETA         time.Duration
	BytesPerSec float64
}

// Done records a finished file of size bytes and returns the new progress
func (p *ProgressTracker) Done(bytes int64) Progress {
	p.doneFiles++
	p.doneBytes += bytes
	return p.calculate(time.Since(p.startTime))
}

func (p *ProgressTracker) calculate(elapsed time.Duration) Progress {
	var percentage, rate float64
	var eta time.Duration

	if p.totalBytes > 0 {
		percentage = float64(p.doneBytes) / float64(p.totalBytes) * 100
	} else if p.totalFiles > 0 {
		percentage = float64(p.doneFiles) / float64(p.totalFiles) * 100
	}

	if elapsed.Seconds() > 0 {
		rate = float64(p.doneBytes) / elapsed.Seconds()
	}
	if rate > 0 && p.totalBytes > p.doneBytes {
		eta = time.Duration(float64(p.totalBytes-p.doneBytes)/rate) * time.Second
	}

	return Progress{
		FilesDone:   p.doneFiles,
		FilesTotal:  p.totalFiles,
		Percentage:  percentage,
		Elapsed:     elapsed.Round(time.Second),
		ETA:         eta.Round(time.Second),
		BytesPerSec: rate,
	}
}

// FormatETA formats the ETA duration in a human-readable format
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return "-"
	}

	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatBytes formats bytes in a human-readable format
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
