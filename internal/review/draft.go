package review

import (
	"strings"

	"github.com/edgard/replydesk/internal/database"
)

// DefaultDiagnosticMarker separates the customer-facing draft from the SQL trace the
// drafting pipeline appends to ai_response.
const DefaultDiagnosticMarker = "คำสั่ง SQL ที่ใช้:"

// StripDiagnostics returns the part of an AI response before the first marker, trimmed.
// Responses without the marker are returned unchanged.
func StripDiagnostics(aiResponse, marker string) string {
	if marker == "" {
		return aiResponse
	}
	draft, _, found := strings.Cut(aiResponse, marker)
	if !found {
		return aiResponse
	}
	return strings.TrimSpace(draft)
}

// DisplayText is the default editable value for a task: a prior operator edit when
// present, otherwise the AI draft without its diagnostic section.
func DisplayText(task database.Task, marker string) string {
	if task.AdminResponse.Valid && task.AdminResponse.String != "" {
		return task.AdminResponse.String
	}
	if !task.AIResponse.Valid {
		return ""
	}
	return StripDiagnostics(task.AIResponse.String, marker)
}
