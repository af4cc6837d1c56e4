package models

import (
	"fmt"
	"strings"
	"time"
)

// VideoExtension is the container every interview video is exported to
const VideoExtension = ".mov"

const videoTimestampLayout = "01-02-2006-150405"

// GenerateVideoFileName builds the upload name of an interview video. The
// volunteer name is lower cased with spaces turned into hyphens, and left out
// entirely when unknown.
func GenerateVideoFileName(volunteerName string, at time.Time) string {
	stamp := at.Format(videoTimestampLayout)
	name := strings.ToLower(strings.ReplaceAll(volunteerName, " ", "-"))
	if name == "" {
		return stamp + VideoExtension
	}
	return fmt.Sprintf("%s-%s%s", name, stamp, VideoExtension)
}

// VideoLink composes the absolute media url of an uploaded file
func VideoLink(host, bucket, filename string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(host, "/"), bucket, filename)
}
