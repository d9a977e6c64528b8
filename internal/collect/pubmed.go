// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"context"
	"encoding/json"
	"encoding/xml"
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

// PubMedBaseURL is the NCBI E-utilities root.
const PubMedBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const pubmedDateFmt = "2006/01/02"

// PubMedSource searches PubMed in two steps: esearch returns the ids of
// matching articles in the date window, efetch returns their XML records.
type PubMedSource struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	userAgent   string
	maxRetries  int
	maxPerQuery int
	pacer       *rate.Limiter
	log         *zap.Logger
}

// NewPubMedSource builds a PubMed source from its settings.
func NewPubMedSource(client *http.Client, cfg types.SourceConfig, httpCfg types.HTTPConfig, maxPerQuery int, log *zap.Logger) *PubMedSource {
	if log == nil {
		log = zap.NewNop()
	}
	base := cfg.BaseURL
	if base == "" {
		base = PubMedBaseURL
	}
	return &PubMedSource{
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
func (s *PubMedSource) Name() types.Source { return types.SourcePubMed }

// Search runs esearch for query within window and fetches the details of
// every returned id.
func (s *PubMedSource) Search(ctx context.Context, query string, window Window) ([]types.PaperRecord, int, error) {
	ids, err := s.searchIDs(ctx, query, window)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return nil, 0, nil
	}
	records, err := s.fetchDetails(ctx, ids)
	if err != nil {
		return nil, len(ids), err
	}
	return records, len(ids), nil
}

func (s *PubMedSource) searchIDs(ctx context.Context, query string, window Window) ([]string, error) {
	params := url.Values{
		"db":       {"pubmed"},
		"term":     {query},
		"retmax":   {strconv.Itoa(s.maxPerQuery)},
		"retmode":  {"json"},
		"datetype": {"pdat"},
		"mindate":  {window.From.Format(pubmedDateFmt)},
		"maxdate":  {window.To.Format(pubmedDateFmt)},
		"sort":     {"relevance"},
	}
	if s.apiKey != "" {
		params.Set("api_key", s.apiKey)
	}

	resp, err := s.get(ctx, s.baseURL+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("PubMed esearch request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp, "PubMed esearch"); err != nil {
		return nil, err
	}

	var sr esearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing PubMed esearch response: %w", err)
	}
	return sr.Result.IDList, nil
}

func (s *PubMedSource) fetchDetails(ctx context.Context, ids []string) ([]types.PaperRecord, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
	}
	if s.apiKey != "" {
		params.Set("api_key", s.apiKey)
	}

	resp, err := s.get(ctx, s.baseURL+"/efetch.fcgi?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("PubMed efetch request: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckStatus(resp, "PubMed efetch"); err != nil {
		return nil, err
	}

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing PubMed efetch response: %w", err)
	}

	records := make([]types.PaperRecord, 0, len(set.Articles))
	for _, a := range set.Articles {
		records = append(records, a.toRecord())
	}
	return records, nil
}

// get waits for the pacer and issues a GET with retry on 429.
func (s *PubMedSource) get(ctx context.Context, reqURL string) (*http.Response, error) {
	if err := s.pacer.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	return httputil.DoWithRetry(ctx, s.client, req, s.maxRetries, s.log)
}

// E-utilities JSON and XML structures.
type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID       string            `xml:"MedlineCitation>PMID"`
	Article    pubmedArticleBody `xml:"MedlineCitation>Article"`
	ArticleIDs []pubmedArticleID `xml:"PubmedData>ArticleIdList>ArticleId"`
}

type pubmedArticleBody struct {
	Title    pubmedMarkup   `xml:"ArticleTitle"`
	Abstract []pubmedMarkup `xml:"Abstract>AbstractText"`
	Journal  struct {
		Title   string     `xml:"Title"`
		PubDate pubmedDate `xml:"JournalIssue>PubDate"`
	} `xml:"Journal"`
	Authors []pubmedAuthor `xml:"AuthorList>Author"`
}

// pubmedMarkup keeps inner markup such as <i> so that its text survives;
// cleanText strips the tags afterwards.
type pubmedMarkup struct {
	Inner string `xml:",innerxml"`
}

type pubmedDate struct {
	Year        string `xml:"Year"`
	Month       string `xml:"Month"`
	MedlineDate string `xml:"MedlineDate"`
}

type pubmedAuthor struct {
	LastName       string `xml:"LastName"`
	CollectiveName string `xml:"CollectiveName"`
}

type pubmedArticleID struct {
	Type  string `xml:"IdType,attr"`
	Value string `xml:",chardata"`
}

func (a pubmedArticle) toRecord() types.PaperRecord {
	title := cleanText(a.Article.Title.Inner)
	if title == "" {
		title = "Untitled"
	}

	parts := make([]string, 0, len(a.Article.Abstract))
	for _, p := range a.Article.Abstract {
		if t := cleanText(p.Inner); t != "" {
			parts = append(parts, t)
		}
	}

	var authors []string
	for _, au := range a.Article.Authors {
		name := strings.TrimSpace(au.LastName)
		if name == "" {
			name = strings.TrimSpace(au.CollectiveName)
		}
		if name != "" {
			authors = append(authors, name)
		}
	}

	return types.PaperRecord{
		Title:          title,
		Abstract:       strings.Join(parts, " "),
		Venue:          strings.TrimSpace(a.Article.Journal.Title),
		Authors:        authors,
		PublishedLabel: a.Article.Journal.PubDate.label(),
		ExternalURL:    a.link(),
		Source:         types.SourcePubMed,
	}
}

// link prefers the DOI permalink over the PubMed page.
func (a pubmedArticle) link() string {
	for _, id := range a.ArticleIDs {
		if strings.EqualFold(id.Type, "doi") && strings.TrimSpace(id.Value) != "" {
			return "https://doi.org/" + strings.TrimSpace(id.Value)
		}
	}
	return fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", strings.TrimSpace(a.PMID))
}

func (d pubmedDate) label() string {
	switch {
	case d.Year != "" && d.Month != "":
		return d.Year + " " + d.Month
	case d.Year != "":
		return d.Year
	case d.MedlineDate != "":
		return d.MedlineDate
	default:
		return "Recent"
	}
}
