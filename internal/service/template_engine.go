package service

import (
	"regexp"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/review-desk-api/internal/models"
)

// Placeholder names recognised in template content.
const (
	VarAuthorName   = "author_name"
	VarLocationName = "location_name"
	VarRating       = "rating"
)

var (
	placeholderPattern = regexp.MustCompile(`\{(\w+)\}`)
	knownVariables     = []string{VarAuthorName, VarLocationName, VarRating}
)

// AvailableVariables lists the placeholder names templates may use.
func AvailableVariables() []string {
	return append([]string(nil), knownVariables...)
}

func isKnownVariable(name string) bool {
	for _, v := range knownVariables {
		if v == name {
			return true
		}
	}
	return false
}

// TemplateEngine selects and renders reply templates. It holds no state besides its logger.
type TemplateEngine struct {
	logger *zap.Logger
}

func NewTemplateEngine(logger *zap.Logger) *TemplateEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateEngine{logger: logger}
}

// Select returns the active template covering rating with the highest rating_min.
// Ties prefer the narrower range, then the older template, then the smaller id. Nil when none matches.
func (e *TemplateEngine) Select(rating int, templates []models.ReplyTemplate) *models.ReplyTemplate {
	candidates := make([]models.ReplyTemplate, 0, len(templates))
	for _, tpl := range templates {
		if tpl.IsActive && tpl.Covers(rating) {
			candidates = append(candidates, tpl)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.RatingMin != b.RatingMin {
			return a.RatingMin > b.RatingMin
		}
		if a.RatingMax != b.RatingMax {
			return a.RatingMax < b.RatingMax
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	selected := candidates[0]
	return &selected
}

// Render substitutes recognised placeholders that have a value in vars. Substituted text is never rescanned.
// Placeholders left in place are logged at WARN.
func (e *TemplateEngine) Render(body string, vars map[string]string) string {
	out, unresolved := render(body, vars)
	if len(unresolved) > 0 {
		e.logger.Warn("template rendered with unresolved placeholders", zap.Strings("placeholders", unresolved))
	}
	return out
}

// Validate extracts placeholder names in order of first appearance. The body is valid when all are recognised.
func (e *TemplateEngine) Validate(body string) (bool, []string) {
	found := Placeholders(body)
	for _, name := range found {
		if !isKnownVariable(name) {
			return false, found
		}
	}
	return true, found
}

// Unknown returns the placeholder names in body that are not recognised.
func (e *TemplateEngine) Unknown(body string) []string {
	var unknown []string
	for _, name := range Placeholders(body) {
		if !isKnownVariable(name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// Unresolved lists placeholder names still present in text.
func (e *TemplateEngine) Unresolved(text string) []string {
	return Placeholders(text)
}

// Placeholders returns the distinct {name} tokens of text in order of first appearance.
func Placeholders(text string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// ReviewVariables builds the render values for a review.
func ReviewVariables(review *models.Review, locationName string) map[string]string {
	author := review.AuthorName
	if author == "" {
		author = models.AnonymousAuthor
	}
	return map[string]string{
		VarAuthorName:   author,
		VarLocationName: locationName,
		VarRating:       strconv.Itoa(review.Rating),
	}
}

func render(body string, vars map[string]string) (string, []string) {
	var unresolved []string
	seen := map[string]struct{}{}
	out := placeholderPattern.ReplaceAllStringFunc(body, func(token string) string {
		name := token[1 : len(token)-1]
		if isKnownVariable(name) {
			if v, ok := vars[name]; ok {
				return v
			}
		}
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			unresolved = append(unresolved, name)
		}
		return token
	})
	return out, unresolved
}
