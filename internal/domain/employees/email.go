package employees

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

func sanitizeLocalPart(value string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(value), "")
}

// CorporateEmail builds name.id@domain, or "" when either part sanitizes away.
func CorporateEmail(name, employeeID, domain string) string {
	cleanName := sanitizeLocalPart(name)
	cleanID := sanitizeLocalPart(employeeID)
	if cleanName == "" || cleanID == "" {
		return ""
	}
	return cleanName + "." + cleanID + "@" + domain
}

func CorporateEmailPattern(domain string) *regexp.Regexp {
	return regexp.MustCompile(`^[a-z0-9]+\.[a-z0-9]+@` + regexp.QuoteMeta(domain) + `$`)
}
