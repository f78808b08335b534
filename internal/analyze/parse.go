package analyze

import (
	"regexp"
	"strconv"
	"strings"
)

// Response markers. Matching is by substring so decorated variants such as
// "**Root Cause:**" are accepted.
const (
	markerRootCause  = "Root Cause:"
	markerConfidence = "Confidence:"
	markerRecommend  = "Recommendations:"
)

const (
	defaultRootCause = "Unable to determine root cause"
	defaultRecommend = "See detailed analysis for recommendations"
)

var percentRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

// recommendation list bullets: "1. foo", "- foo", "* foo", "• foo"
const bulletCutset = "0123456789.*-•) \t"

// ParseResponse extracts the structured fields from a free-text analysis.
// Missing markers produce defaults, never an error; the raw response is
// always preserved.
func ParseResponse(raw string) Result {
	res := Result{
		RootCause:   defaultRootCause,
		RawResponse: raw,
	}

	if section, ok := between(raw, markerRootCause, markerConfidence, markerRecommend); ok {
		if cause := strings.Trim(section, "* \t\r\n"); cause != "" {
			res.RootCause = cause
		}
	}
	if section, ok := between(raw, markerConfidence, markerRecommend); ok {
		if m := percentRe.FindStringSubmatch(section); m != nil {
			if pct, err := strconv.ParseFloat(m[1], 64); err == nil {
				res.Confidence = pct / 100
			}
		}
	}
	if section, ok := between(raw, markerRecommend); ok {
		res.Recommendations = parseBullets(section)
	}
	if len(res.Recommendations) == 0 {
		res.Recommendations = []string{defaultRecommend}
	}
	return res
}

// between returns the text after the first occurrence of marker, cut at the
// earliest of the stop markers that follows it.
func between(raw, marker string, stops ...string) (string, bool) {
	i := strings.Index(raw, marker)
	if i < 0 {
		return "", false
	}
	section := raw[i+len(marker):]
	for _, stop := range stops {
		if j := strings.Index(section, stop); j >= 0 {
			// The stop marker may carry leading decoration on its own line.
			if k := strings.LastIndexByte(section[:j], '\n'); k >= 0 && strings.Trim(section[k:j], "* \t\r") == "" {
				j = k
			}
			section = section[:j]
		}
	}
	return section, true
}

func parseBullets(section string) []string {
	var recs []string
	for _, raw := range strings.Split(section, "\n") {
		line := strings.TrimSpace(raw)
		if !isBullet(line) {
			continue
		}
		if item := strings.TrimLeft(line, bulletCutset); item != "" {
			recs = append(recs, item)
		}
	}
	return recs
}

func isBullet(line string) bool {
	if line == "" {
		return false
	}
	if line[0] >= '0' && line[0] <= '9' {
		return true
	}
	return strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") || strings.HasPrefix(line, "•")
}
