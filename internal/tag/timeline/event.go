package timeline

import (
	"fmt"
	"strconv"

	"github.com/chaosinthecrd/tag/internal/tag/activity"
)

// DatetimeFormat is the layout of the datetime column.
const DatetimeFormat = "2006-01-02 15:04:05.000000"

// Event is a single row of the log2timeline table, as read by 4n6time.
type Event struct {
	ID             int64
	Timezone       string
	MACB           string
	Source         string
	SourceType     string
	Type           string
	User           string
	Host           string
	Desc           string
	Filename       string
	Inode          string
	Notes          string
	Format         string
	Extra          string
	Datetime       string
	ReportNotes    string
	InReport       string
	Tag            string
	Color          string
	Offset         int64
	StoreNumber    int64
	StoreIndex     int64
	VSSStoreNumber int64
	URL            string
	RecordNumber   string
	EventID        string
	EventType      string
	SourceName     string
	UserSID        string
	ComputerName   string
	Bookmark       int64
}

// FromRecords converts activity records into timeline events. runID is stored
// in the notes column and host in host/computer_name.
func FromRecords(records []activity.Record, runID, host string) []*Event {
	events := make([]*Event, 0, len(records))
	for i, r := range records {
		e := &Event{
			Timezone:       "UTC",
			MACB:           "....",
			SourceType:     "tag activity",
			Type:           string(r.Type()),
			User:           r.Username,
			Host:           host,
			Format:         "tag",
			Extra:          fmt.Sprintf("pid: %d; process_name: %s; command_line: %s", r.PID, r.ProcessName, r.CommandLine),
			Datetime:       r.Time.UTC().Format(DatetimeFormat),
			Notes:          runID,
			Tag:            "tag",
			StoreNumber:    -1,
			StoreIndex:     -1,
			VSSStoreNumber: -1,
			RecordNumber:   strconv.Itoa(i + 1),
			EventType:      string(r.Type()),
			SourceName:     r.ProcessName,
			ComputerName:   host,
		}

		switch p := r.Activity.(type) {
		case activity.FileCreated:
			e.MACB = "...B"
			e.Source = "FILE"
			e.Filename = p.Path
			e.Desc = "file created: " + p.Path
		case activity.FileModified:
			e.MACB = "M..."
			e.Source = "FILE"
			e.Filename = p.Path
			e.Desc = "file modified: " + p.Path
		case activity.FileDeleted:
			e.Source = "FILE"
			e.Filename = p.Path
			e.Desc = "file deleted: " + p.Path
		case activity.ProcessForked:
			e.Source = "PROC"
			e.Filename = r.ProcessName
			e.Desc = fmt.Sprintf("process %d forked child %d", r.PID, p.ChildPID)
		case activity.ProcessExecuted:
			e.Source = "PROC"
			e.Filename = r.ProcessName
			e.Desc = fmt.Sprintf("process %d (child of %d) executed %s", r.PID, p.ParentPID, r.CommandLine)
		case activity.Network:
			e.Source = "NET"
			e.Filename = p.Destination.String()
			e.URL = p.Destination.String()
			e.Desc = fmt.Sprintf("%s %s -> %s, %d bytes sent", p.Protocol, p.Source, p.Destination, p.BytesSent)
		}

		events = append(events, e)
	}

	return events
}
