package enrichment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ternarybob/litemark/internal/interfaces"
	"github.com/ternarybob/litemark/internal/models"
)

// ErrUnknownOperation is returned for an operation name other than summarize or classify
var ErrUnknownOperation = errors.New("unknown operation")

// Operation names accepted by batch requests
const (
	OperationSummarize = "summarize"
	OperationClassify  = "classify"
)

// SummarizeOperation fills Description and Tags of bookmarks without a description
type SummarizeOperation struct {
	summarizer *Summarizer
}

// NewSummarizeOperation wraps a summarizer as an enrichment operation
func NewSummarizeOperation(summarizer *Summarizer) *SummarizeOperation {
	return &SummarizeOperation{summarizer: summarizer}
}

func (o *SummarizeOperation) Name() string { return OperationSummarize }

func (o *SummarizeOperation) Unprocessed() models.BookmarkFilter {
	return models.BookmarkFilter{MissingDescription: true}
}

// Enrich sets item.Description and item.Tags
func (o *SummarizeOperation) Enrich(ctx context.Context, item *models.Bookmark, existingCategories []string) error {
	result, err := o.summarizer.SummarizeURL(ctx, item.URL, item.Title)
	if err != nil {
		return err
	}
	item.Description = models.StringPtr(result.Summary)
	item.Tags = result.Tags
	return nil
}

// ClassifyOperation fills Category of bookmarks without one
type ClassifyOperation struct {
	classifier *Classifier
}

// NewClassifyOperation wraps a classifier as an enrichment operation
func NewClassifyOperation(classifier *Classifier) *ClassifyOperation {
	return &ClassifyOperation{classifier: classifier}
}

func (o *ClassifyOperation) Name() string { return OperationClassify }

func (o *ClassifyOperation) Unprocessed() models.BookmarkFilter {
	return models.BookmarkFilter{MissingCategory: true}
}

// Enrich sets item.Category
func (o *ClassifyOperation) Enrich(ctx context.Context, item *models.Bookmark, existingCategories []string) error {
	result, err := o.classifier.Classify(ctx, ClassifyInput{
		Title:              item.Title,
		URL:                item.URL,
		Description:        item.DescriptionText(),
		ExistingCategories: existingCategories,
	})
	if err != nil {
		return err
	}
	item.Category = models.StringPtr(result.SuggestedCategory)
	return nil
}

// Operations resolves operation names to implementations
type Operations struct {
	byName map[string]interfaces.EnrichmentOperation
}

// NewOperations registers the given operations by Name
func NewOperations(ops ...interfaces.EnrichmentOperation) *Operations {
	byName := make(map[string]interfaces.EnrichmentOperation, len(ops))
	for _, op := range ops {
		byName[op.Name()] = op
	}
	return &Operations{byName: byName}
}

// Resolve returns the operations in request order and their combined label ("summarize+classify").
// Duplicates are dropped; an empty or unknown name yields ErrUnknownOperation.
func (o *Operations) Resolve(names []string) ([]interfaces.EnrichmentOperation, string, error) {
	if len(names) == 0 {
		return nil, "", fmt.Errorf("%w: no operation given", ErrUnknownOperation)
	}

	seen := make(map[string]bool, len(names))
	ops := make([]interfaces.EnrichmentOperation, 0, len(names))
	labels := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		op, ok := o.byName[name]
		if !ok {
			return nil, "", fmt.Errorf("%w: %q", ErrUnknownOperation, name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		ops = append(ops, op)
		labels = append(labels, name)
	}

	return ops, strings.Join(labels, "+"), nil
}
