package server

import (
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/fact-archiver/internal/db"
	"github.com/jonathan/fact-archiver/internal/scoring"
)

const dateLayout = "2006-01-02"

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &ErrInvalidDate{Message: "invalid date format (YYYY-MM-DD)"}
	}
	return t, nil
}

// DayCount is one day's event tally in a range query.
type DayCount struct {
	Date       string `json:"date"`
	EventCount int    `json:"event_count"`
}

// handleDays returns per-day event counts for an inclusive date range.
func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		s.errorResponse(w, &ErrInvalidDate{Message: "start and end are required (YYYY-MM-DD)"})
		return
	}
	startDate, err := parseDate(start)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	endDate, err := parseDate(end)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if endDate.Before(startDate) {
		s.errorResponse(w, &ErrInvalidDate{Message: "end must be >= start"})
		return
	}

	counts, err := s.store.CountEventsByDateRange(r.Context(), start, end)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	days := []DayCount{}
	for cursor := startDate; !cursor.After(endDate); cursor = cursor.AddDate(0, 0, 1) {
		key := cursor.Format(dateLayout)
		days = append(days, DayCount{Date: key, EventCount: counts[key]})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"days": days})
}

// EventSummary is the day-detail view of one event.
type EventSummary struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	ImportanceScore *float64 `json:"importance_score"`
}

// ReviewItem is one claim awaiting human review.
type ReviewItem struct {
	ClaimID        string   `json:"claim_id"`
	EventID        string   `json:"event_id"`
	NormalizedText string   `json:"normalized_text"`
	Status         string   `json:"status"`
	Score          *float64 `json:"score"`
}

// handleDay returns a day's events plus its review queue: claims whose
// latest assessment is still Unverified or Contested.
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	dateKey := r.PathValue("date")
	if _, err := parseDate(dateKey); err != nil {
		s.errorResponse(w, err)
		return
	}

	events, err := s.store.ListEventsByDateKeyDesc(r.Context(), dateKey)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	queue, err := s.store.ListReviewQueue(r.Context(), dateKey,
		[]string{scoring.StatusUnverified, scoring.StatusContested})
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	summaries := []EventSummary{}
	for _, e := range events {
		summaries = append(summaries, EventSummary{
			ID:              e.ID.String(),
			Title:           e.Title,
			ImportanceScore: e.ImportanceScore,
		})
	}
	review := []ReviewItem{}
	for _, cs := range queue {
		review = append(review, ReviewItem{
			ClaimID:        cs.Claim.ID.String(),
			EventID:        cs.Claim.EventID.String(),
			NormalizedText: cs.Claim.NormalizedText,
			Status:         cs.Assessment.Status,
			Score:          cs.Assessment.Score,
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"date":         dateKey,
		"events":       summaries,
		"review_queue": review,
	})
}

// SourceSummary is one member source of an event.
type SourceSummary struct {
	ID          string  `json:"id"`
	Publisher   *string `json:"publisher"`
	URL         string  `json:"url"`
	PublishedAt *string `json:"published_at"`
}

// ClaimView is one claim with its latest assessment, grouped by status.
type ClaimView struct {
	ID             string   `json:"id"`
	NormalizedText string   `json:"normalized_text"`
	Score          *float64 `json:"score"`
	Rationale      []string `json:"rationale"`
}

// handleEvent returns one event with its member sources and claims grouped
// by latest-assessment status.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}

	event, err := s.store.GetEvent(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if event == nil {
		s.errorResponse(w, &ErrEventNotFound{EventID: id})
		return
	}

	sources, err := s.store.ListSourceItemsByEvent(r.Context(), event.ID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	statuses, err := s.store.ListClaimStatusesByEvent(r.Context(), event.ID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	sourceViews := []SourceSummary{}
	for _, src := range sources {
		view := SourceSummary{ID: src.ID.String(), Publisher: src.Publisher, URL: src.URL}
		if src.PublishedAt != nil {
			formatted := src.PublishedAt.UTC().Format(time.RFC3339)
			view.PublishedAt = &formatted
		}
		sourceViews = append(sourceViews, view)
	}

	grouped := make(map[string][]ClaimView)
	for _, cs := range statuses {
		grouped[cs.Assessment.Status] = append(grouped[cs.Assessment.Status], ClaimView{
			ID:             cs.Claim.ID.String(),
			NormalizedText: cs.Claim.NormalizedText,
			Score:          cs.Assessment.Score,
			Rationale:      cs.Assessment.Rationale,
		})
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"id":               event.ID.String(),
		"title":            event.Title,
		"date_key":         event.DateKey,
		"sources":          sourceViews,
		"claims_by_status": grouped,
	})
}

// OverrideRequest is the body of a human review override.
type OverrideRequest struct {
	Status    string   `json:"status" validate:"required"`
	Score     *float64 `json:"score" validate:"omitempty,gte=0,lte=1"`
	Rationale []string `json:"rationale"`
}

// handleOverride appends a human assessment for a claim. The automatic
// scorer backs off once any assessment exists, so the override sticks.
func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}

	var req OverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, validationError(err))
		return
	}

	claim, err := s.store.GetClaim(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if claim == nil {
		s.errorResponse(w, &ErrClaimNotFound{ClaimID: id})
		return
	}

	version := scoring.ModelVersionHuman
	rationale := req.Rationale
	if rationale == nil {
		rationale = []string{}
	}
	assessment, err := s.store.InsertAssessment(r.Context(), &db.Assessment{
		ClaimID:         claim.ID,
		ModelVersion:    &version,
		Status:          req.Status,
		Score:           req.Score,
		Rationale:       rationale,
		ComputedSignals: json.RawMessage(`{}`),
	})
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"assessment_id": assessment.ID.String()})
}

var verificationTemplate = template.Must(template.New("verification").Parse(`<html>
  <head>
    <title>Verification</title>
  </head>
  <body>
    <h1>Transparency Log</h1>
    <p>Each entry links to the previous root to prove append-only history.</p>
    <table border="1" cellpadding="6" cellspacing="0">
      <thead>
        <tr><th>Created At</th><th>Previous Root</th><th>Merkle Root</th></tr>
      </thead>
      <tbody>
        {{range .}}<tr><td>{{.CreatedAt}}</td><td>{{if .PreviousRoot}}{{.PreviousRoot}}{{end}}</td><td>{{.MerkleRoot}}</td></tr>
        {{end}}
      </tbody>
    </table>
    <h2>Verification Steps</h2>
    <ol>
      <li>Recompute daily hashes for source items, artifacts, and assessments.</li>
      <li>Build a Merkle root from the sorted hashes.</li>
      <li>Compare with the recorded Merkle root for the same date.</li>
      <li>Verify each entry links to the previous root.</li>
    </ol>
  </body>
</html>
`))

// handleVerification renders the transparency log as an HTML table, newest
// entry first.
func (s *Server) handleVerification(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListTransparencyEntries(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := verificationTemplate.Execute(w, entries); err != nil {
		log.Printf("Error rendering verification page: %v", err)
	}
}
