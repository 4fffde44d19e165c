package domain

import (
	"math"
	"strconv"
	"time"
)

// Attachment is a file uploaded alongside a ticket.
type Attachment struct {
	ID        string
	TicketID  string
	Filename  string
	Filepath  string
	MimeType  string
	FileSize  int64
	CreatedAt time.Time
}

// HumanFileSize renders the size in binary units rounded to two decimals.
func (a Attachment) HumanFileSize() string {
	units := []string{"B", "KB", "MB", "GB"}
	size := float64(a.FileSize)
	i := 0
	for size > 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	rounded := math.Round(size*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + units[i]
}
