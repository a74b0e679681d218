package notifications

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// message is one ntfy publish. Priority "default" is omitted from the
// request.
type message struct {
	Title    string
	Body     string
	Tags     []string
	Priority string
}

func dubCompleted(videoPath, outputPath string, dubbed, total int, elapsed time.Duration) message {
	body := fmt.Sprintf("Dubbed %s: %d of %d utterances in %s",
		filepath.Base(videoPath), dubbed, total, max(elapsed.Round(time.Second), 0))
	if outputPath = strings.TrimSpace(outputPath); outputPath != "" {
		body += "\nFile: " + outputPath
	}
	return message{
		Title:    "redub - Dub Complete",
		Body:     body,
		Tags:     []string{"redub", "dub", "completed"},
		Priority: "high",
	}
}

func dubFailed(videoPath string, err error) message {
	reason := "unknown"
	if err != nil {
		reason = strings.TrimSpace(err.Error())
	}
	return message{
		Title:    "redub - Error",
		Body:     "Dub failed for " + filepath.Base(videoPath) + ": " + reason,
		Tags:     []string{"redub", "error", "alert"},
		Priority: "high",
	}
}

func testMessage() message {
	return message{
		Title:    "redub - Test",
		Body:     "Notification system test",
		Tags:     []string{"redub", "test"},
		Priority: "low",
	}
}
