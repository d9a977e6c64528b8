// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/journal-scout/internal/httputil"
	"github.com/pdiddy/journal-scout/pkg/types"
)

// SemanticScholarBaseURL is the Semantic Scholar graph API root.
const SemanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1"

const semanticFields = "title,abstract,authors,venue,year,citationCount,externalIds,publicationDate"

// SemanticScholarSource queries the Semantic Scholar paper search endpoint.
type SemanticScholarSource struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	userAgent   string
	maxRetries  int
	maxPerQuery int
	pacer       *rate.Limiter
	log         *zap.Logger
}

// NewSemanticScholarSource builds a Semantic Scholar source from its settings.
func NewSemanticScholarSource(client *http.Client, cfg types.SourceConfig, httpCfg types.HTTPConfig, maxPerQuery int, log *zap.Logger) *SemanticScholarSource {
	if log == nil {
		log = zap.NewNop()
	}
	base := cfg.BaseURL
	if base == "" {
		base = SemanticScholarBaseURL
	}
	return &SemanticScholarSource{
		client:      client,
		baseURL:     strings.TrimRight(base, "/"),
		apiKey:      cfg.APIKey,
		userAgent:   httpCfg.UserAgent,
		maxRetries:  httpCfg.MaxRetries,
		maxPerQuery: maxPerQuery,
		pacer:       newPacer(cfg.Delay),
		log:         log,
	}
}

// Name returns the source identifier.
func (s *SemanticScholarSource) Name() types.Source { return types.SourceSemanticScholar }

// Search queries papers published on or after window.From.
func (s *SemanticScholarSource) Search(ctx context.Context, query string, window Window) ([]types.PaperRecord, int, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, fmt.Errorf("empty Semantic Scholar query")
	}

	params := url.Values{
		"query":                 {query},
		"limit":                 {strconv.Itoa(s.maxPerQuery)},
		"fields":                {semanticFields},
		"publicationDateOrYear": {window.From.Format("2006-01-02") + ":"},
	}
	reqURL := s.baseURL + "/paper/search?" + params.Encode()

	if err := s.pacer.Wait(ctx); err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := httputil.DoWithRetry(ctx, s.client, req, s.maxRetries, s.log)
	if err != nil {
		return nil, 0, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp, "Semantic Scholar API"); err != nil {
		return nil, 0, err
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, 0, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	records := make([]types.PaperRecord, 0, len(sr.Data))
	for _, p := range sr.Data {
		records = append(records, p.toRecord())
	}
	return records, len(sr.Data), nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	Venue           string              `json:"venue"`
	Year            int                 `json:"year"`
	PublicationDate string              `json:"publicationDate"`
	CitationCount   *int                `json:"citationCount"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	Name string `json:"name"`
}

type semanticExternalIDs struct {
	DOI string `json:"DOI"`
}

func (p semanticPaper) toRecord() types.PaperRecord {
	title := cleanText(p.Title)
	if title == "" {
		title = "Untitled"
	}

	venue := strings.TrimSpace(p.Venue)
	if venue == "" {
		venue = "Preprint"
	}

	var authors []string
	for _, a := range p.Authors {
		if n := surname(a.Name); n != "" {
			authors = append(authors, n)
		}
	}

	link := "https://www.semanticscholar.org/paper/" + p.PaperID
	if p.ExternalIDs.DOI != "" {
		link = "https://doi.org/" + p.ExternalIDs.DOI
	}

	label := "Recent"
	switch {
	case p.PublicationDate != "":
		label = p.PublicationDate
	case p.Year > 0:
		label = strconv.Itoa(p.Year)
	}

	return types.PaperRecord{
		Title:          title,
		Abstract:       cleanText(p.Abstract),
		Venue:          venue,
		Authors:        authors,
		PublishedLabel: label,
		ExternalURL:    link,
		CitationCount:  p.CitationCount,
		Source:         types.SourceSemanticScholar,
	}
}
