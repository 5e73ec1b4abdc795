package assistant

import "strings"

var priorityIDs = map[string]string{
	"highest": "1",
	"high":    "2",
	"medium":  "3",
	"low":     "4",
	"lowest":  "5",
}

// PriorityID maps a priority name to the tracker's fixed priority id.
func PriorityID(name string) (string, bool) {
	id, ok := priorityIDs[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}
