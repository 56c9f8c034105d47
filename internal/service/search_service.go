package service

import (
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"skillpath.app/backend/internal/model"
)

const (
	indexLearningPaths = "learning_paths"
	indexResources     = "resources"
	indexNotes         = "notes"
)

// SearchService mirrors learning content into Meilisearch and runs
// server-side queries against it. All methods are nil-safe: without a
// configured client, indexing is a no-op and Search returns empty results.
type SearchService interface {
	IndexLearningPath(path *model.LearningPath) error
	IndexResource(resource *model.Resource) error
	IndexNote(note *model.Note) error
	DeleteLearningPath(id string) error
	DeleteResource(id string) error
	DeleteNote(id string) error
	Search(userID uuid.UUID, query, scope string, limit int) (*SearchResults, error)
	Suggestions(userID uuid.UUID, prefix string, limit int) ([]string, error)
}

type SearchHit struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type SearchResults struct {
	Query         string      `json:"query"`
	LearningPaths []SearchHit `json:"learning_paths"`
	Resources     []SearchHit `json:"resources"`
	Notes         []SearchHit `json:"notes"`
}

type searchService struct {
	client    meilisearch.ServiceManager
	sanitizer *bluemonday.Policy
}

func NewSearchService(client meilisearch.ServiceManager) SearchService {
	s := &searchService{
		client:    client,
		sanitizer: bluemonday.StrictPolicy(),
	}
	if client != nil {
		s.initIndexes()
	}
	return s
}

func (s *searchService) initIndexes() {
	pathFilterable := []any{"user_id", "subject", "difficulty_level"}
	if _, err := s.client.Index(indexLearningPaths).UpdateFilterableAttributes(&pathFilterable); err != nil {
		log.Printf("Failed to update learning_paths filterable attributes: %v", err)
	}
	pathSortable := []string{"created_at"}
	if _, err := s.client.Index(indexLearningPaths).UpdateSortableAttributes(&pathSortable); err != nil {
		log.Printf("Failed to update learning_paths sortable attributes: %v", err)
	}

	resourceFilterable := []any{"topic_id", "resource_type", "difficulty_level"}
	if _, err := s.client.Index(indexResources).UpdateFilterableAttributes(&resourceFilterable); err != nil {
		log.Printf("Failed to update resources filterable attributes: %v", err)
	}

	noteFilterable := []any{"user_id", "tags"}
	if _, err := s.client.Index(indexNotes).UpdateFilterableAttributes(&noteFilterable); err != nil {
		log.Printf("Failed to update notes filterable attributes: %v", err)
	}
	noteSortable := []string{"updated_at"}
	if _, err := s.client.Index(indexNotes).UpdateSortableAttributes(&noteSortable); err != nil {
		log.Printf("Failed to update notes sortable attributes: %v", err)
	}

	log.Println("Meilisearch indexes initialized")
}

type meiliPathDoc struct {
	ID              string `json:"id"`
	UserID          string `json:"user_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Subject         string `json:"subject"`
	DifficultyLevel string `json:"difficulty_level"`
	CreatedAt       int64  `json:"created_at"`
}

type meiliResourceDoc struct {
	ID              string `json:"id"`
	TopicID         string `json:"topic_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Content         string `json:"content"`
	ResourceType    string `json:"resource_type"`
	DifficultyLevel string `json:"difficulty_level"`
}

type meiliNoteDoc struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	UpdatedAt int64    `json:"updated_at"`
}

func (s *searchService) cleanContentForIndex(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = strings.ReplaceAll(content, "</div>", " ")

	sanitized := s.sanitizer.Sanitize(content)
	cleanText := html.UnescapeString(sanitized)
	cleanText = strings.Join(strings.Fields(cleanText), " ")

	return cleanText
}

func (s *searchService) IndexLearningPath(path *model.LearningPath) error {
	if s.client == nil {
		return nil
	}

	doc := meiliPathDoc{
		ID:              path.ID.String(),
		UserID:          path.UserID.String(),
		Title:           path.Title,
		Description:     s.cleanContentForIndex(derefString(path.Description)),
		Subject:         path.Subject,
		DifficultyLevel: path.DifficultyLevel,
		CreatedAt:       path.CreatedAt.Unix(),
	}

	task, err := s.client.Index(indexLearningPaths).AddDocuments([]meiliPathDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed learning path %s, task id: %d", path.ID, task.TaskUID)
	return nil
}

func (s *searchService) IndexResource(resource *model.Resource) error {
	if s.client == nil {
		return nil
	}

	doc := meiliResourceDoc{
		ID:              resource.ID.String(),
		TopicID:         resource.TopicID.String(),
		Title:           resource.Title,
		Description:     s.cleanContentForIndex(derefString(resource.Description)),
		Content:         s.cleanContentForIndex(derefString(resource.Content)),
		ResourceType:    resource.ResourceType,
		DifficultyLevel: resource.DifficultyLevel,
	}

	task, err := s.client.Index(indexResources).AddDocuments([]meiliResourceDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed resource %s, task id: %d", resource.ID, task.TaskUID)
	return nil
}

func (s *searchService) IndexNote(note *model.Note) error {
	if s.client == nil {
		return nil
	}

	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}

	doc := meiliNoteDoc{
		ID:        note.ID.String(),
		UserID:    note.UserID.String(),
		Title:     note.Title,
		Content:   s.cleanContentForIndex(note.Content),
		Tags:      tags,
		UpdatedAt: note.UpdatedAt.Unix(),
	}

	task, err := s.client.Index(indexNotes).AddDocuments([]meiliNoteDoc{doc}, strPtr("id"))
	if err != nil {
		return err
	}
	log.Printf("Indexed note %s, task id: %d", note.ID, task.TaskUID)
	return nil
}

func (s *searchService) DeleteLearningPath(id string) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Index(indexLearningPaths).DeleteDocument(id)
	return err
}

func (s *searchService) DeleteResource(id string) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Index(indexResources).DeleteDocument(id)
	return err
}

func (s *searchService) DeleteNote(id string) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Index(indexNotes).DeleteDocument(id)
	return err
}

// Search queries the requested scope ("all", "learning_paths", "resources",
// "notes"). Notes are always filtered to the requesting user.
func (s *searchService) Search(userID uuid.UUID, query, scope string, limit int) (*SearchResults, error) {
	results := &SearchResults{
		Query:         query,
		LearningPaths: []SearchHit{},
		Resources:     []SearchHit{},
		Notes:         []SearchHit{},
	}

	if s.client == nil || strings.TrimSpace(query) == "" {
		return results, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	if scope == "" {
		scope = "all"
	}

	if scope == "all" || scope == indexLearningPaths {
		hits, err := s.searchIndex(indexLearningPaths, query, "", int64(limit), "learning_path")
		if err != nil {
			return nil, err
		}
		results.LearningPaths = hits
	}

	if scope == "all" || scope == indexResources {
		hits, err := s.searchIndex(indexResources, query, "", int64(limit), "resource")
		if err != nil {
			return nil, err
		}
		results.Resources = hits
	}

	if scope == "all" || scope == indexNotes {
		filter := fmt.Sprintf("user_id = %q", userID.String())
		hits, err := s.searchIndex(indexNotes, query, filter, int64(limit), "note")
		if err != nil {
			return nil, err
		}
		results.Notes = hits
	}

	return results, nil
}

func (s *searchService) searchIndex(index, query, filter string, limit int64, hitType string) ([]SearchHit, error) {
	req := &meilisearch.SearchRequest{
		Limit: limit,
	}
	if filter != "" {
		req.Filter = filter
	}

	resp, err := s.client.Index(index).Search(query, req)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(resp.Hits))
	for _, raw := range resp.Hits {
		var doc map[string]any
		if err := raw.Decode(&doc); err != nil {
			continue
		}
		hit := SearchHit{
			ID:    docString(doc, "id"),
			Type:  hitType,
			Title: docString(doc, "title"),
		}
		snippet := docString(doc, "description")
		if snippet == "" {
			snippet = docString(doc, "content")
		}
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		hit.Snippet = snippet
		hits = append(hits, hit)
	}

	return hits, nil
}

// Suggestions returns learning path and note titles matching a prefix.
func (s *searchService) Suggestions(userID uuid.UUID, prefix string, limit int) ([]string, error) {
	if s.client == nil || strings.TrimSpace(prefix) == "" {
		return []string{}, nil
	}
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	results, err := s.Search(userID, prefix, "all", limit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	suggestions := []string{}
	for _, group := range [][]SearchHit{results.LearningPaths, results.Resources, results.Notes} {
		for _, hit := range group {
			if hit.Title == "" || seen[hit.Title] {
				continue
			}
			seen[hit.Title] = true
			suggestions = append(suggestions, hit.Title)
			if len(suggestions) >= limit {
				return suggestions, nil
			}
		}
	}

	return suggestions, nil
}

func docString(doc map[string]any, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func strPtr(s string) *string {
	return &s
}
