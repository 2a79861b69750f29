package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const auditLabelPrefix = "📋 "

// TableLabel renders a display name for a table: underscores become
// spaces and words are title cased. Audit tables are marked.
func TableLabel(table string) string {
	label := cases.Title(language.English).String(strings.ReplaceAll(table, "_", " "))
	if strings.Contains(strings.ToLower(table), "audit") {
		return auditLabelPrefix + label
	}
	return label
}
