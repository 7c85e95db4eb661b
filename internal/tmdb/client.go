package tmdb

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL  = "https://api.themoviedb.org/3"
	defaultTimeout  = 10 * time.Second
	requestInterval = 100 * time.Millisecond // spacing to stay under API limits
)

// Client handles all interactions with the TMDB API
type Client struct {
	apiKey      string
	baseURL     string
	language    string
	httpClient  *http.Client
	lastRequest time.Time
}

// SearchResult represents a single title from search results
type SearchResult struct {
	ID           int     `json:"id"`
	Name         string  `json:"name,omitempty"`
	Title        string  `json:"title,omitempty"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	VoteAverage  float64 `json:"vote_average"`
}

// EpisodeInfo represents episode information from TMDB
type EpisodeInfo struct {
	AirDate       string `json:"air_date"`
	EpisodeNumber int    `json:"episode_number"`
	SeasonNumber  int    `json:"season_number"`
	Name          string `json:"name"`
	Overview      string `json:"overview"`
	StillPath     string `json:"still_path"`
}

// TVDetails represents detailed TV show information
type TVDetails struct {
	ID               int          `json:"id"`
	Name             string       `json:"name"`
	Status           string       `json:"status"`
	PosterPath       string       `json:"poster_path"`
	NumberOfSeasons  int          `json:"number_of_seasons"`
	NumberOfEpisodes int          `json:"number_of_episodes"`
	NextEpisodeToAir *EpisodeInfo `json:"next_episode_to_air"`
	LastEpisodeToAir *EpisodeInfo `json:"last_episode_to_air"`
}

// searchResponse wraps the TMDB search API response
type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// APIError represents an error returned by the TMDB API
type APIError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("TMDB API error (code %d): %s", e.StatusCode, e.StatusMessage)
}

// NewClient creates a new TMDB API client
func NewClient(apiKey, language string) *Client {
	if language == "" {
		language = "en-US"
	}
	return &Client{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		language: language,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// SetBaseURL allows overriding the base URL (useful for testing)
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = baseURL
}

// SearchTV searches for TV shows by query string
func (c *Client) SearchTV(query string) ([]SearchResult, error) {
	return c.search("tv", query)
}

// SearchMovie searches for movies by query string
func (c *Client) SearchMovie(query string) ([]SearchResult, error) {
	return c.search("movie", query)
}

func (c *Client) search(mediaType, query string) ([]SearchResult, error) {
	if query == "" {
		return []SearchResult{}, nil
	}

	c.rateLimit()

	endpoint := fmt.Sprintf("%s/search/%s?api_key=%s&query=%s&language=%s",
		c.baseURL, mediaType, c.apiKey, url.QueryEscape(query), c.language)

	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", mediaType, err)
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp); err != nil {
		return nil, err
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	return result.Results, nil
}

// GetTVDetails fetches detailed information for a TV show, including the
// next episode to air when the show is still running.
func (c *Client) GetTVDetails(tmdbID int64) (*TVDetails, error) {
	if tmdbID <= 0 {
		return nil, fmt.Errorf("invalid TMDB ID: %d", tmdbID)
	}

	c.rateLimit()

	endpoint := fmt.Sprintf("%s/tv/%d?api_key=%s&language=%s", c.baseURL, tmdbID, c.apiKey, c.language)

	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get TV details: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkResponse(resp); err != nil {
		return nil, err
	}

	var details TVDetails
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return nil, fmt.Errorf("failed to decode TV details response: %w", err)
	}

	return &details, nil
}

// checkResponse checks the HTTP response for errors
func (c *Client) checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{
			StatusCode:    resp.StatusCode,
			StatusMessage: fmt.Sprintf("HTTP %d: failed to read error response", resp.StatusCode),
		}
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return &APIError{
			StatusCode:    resp.StatusCode,
			StatusMessage: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	if apiErr.StatusCode == 0 {
		apiErr.StatusCode = resp.StatusCode
	}
	if apiErr.StatusMessage == "" {
		apiErr.StatusMessage = fmt.Sprintf("HTTP %d error", resp.StatusCode)
	}

	return &apiErr
}

// rateLimit ensures requests are spaced out to avoid hitting API limits
func (c *Client) rateLimit() {
	elapsed := time.Since(c.lastRequest)
	if elapsed < requestInterval {
		time.Sleep(requestInterval - elapsed)
	}
	c.lastRequest = time.Now()
}
