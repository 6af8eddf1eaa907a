package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DUNCANNJUKI/bspot-technologies-sub000/internal/notify"
)

// issuePhrases is the complaint/urgency vocabulary the detector matches
// against, lowercased. Substring match, so "My internet is NOT WORKING!!"
// trips "not working".
var issuePhrases = []string{
	"not working",
	"no internet",
	"no connection",
	"internet is down",
	"network is down",
	"service is down",
	"outage",
	"disconnected",
	"keeps dropping",
	"can't connect",
	"cannot connect",
	"very slow",
	"too slow",
	"complaint",
	"refund",
	"cancel my",
	"overcharged",
	"billing issue",
	"urgent",
	"frustrated",
}

// reportScanDepth is how many trailing user turns the detector inspects.
const reportScanDepth = 3

// DetectIssueReport scans the last few user-authored turns for complaint
// phrases. When any match, it returns a report carrying every matching turn
// (oldest first) and true; otherwise the zero report and false.
func DetectIssueReport(messages []Message) (notify.Report, bool) {
	var scanned []string
	for i := len(messages) - 1; i >= 0 && len(scanned) < reportScanDepth; i-- {
		if messages[i].Role == RoleUser {
			scanned = append(scanned, messages[i].Content)
		}
	}

	var matched []string
	for i := len(scanned) - 1; i >= 0; i-- { // restore oldest-first order
		lower := strings.ToLower(scanned[i])
		for _, phrase := range issuePhrases {
			if strings.Contains(lower, phrase) {
				matched = append(matched, scanned[i])
				break
			}
		}
	}

	if len(matched) == 0 {
		return notify.Report{}, false
	}
	return notify.Report{
		ID:         uuid.NewString(),
		ReceivedAt: time.Now(),
		Excerpts:   matched,
	}, true
}
