package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	json "github.com/goccy/go-json"

	"github.com/censoparroquial/censo/internal/models"
)

// writeResponse is the body returned by create and update.
type writeResponse struct {
	Success  *bool  `json:"success"`
	Message  string `json:"message"`
	ID       string `json:"id"`
	SurveyID string `json:"surveyId"`
	Data     *struct {
		ID string `json:"id"`
	} `json:"data"`
	ErrorDetails *models.ErrorDetails `json:"errorDetails"`
}

func (r writeResponse) result() models.Result {
	res := models.Result{
		Success:      r.Success == nil || *r.Success,
		Message:      r.Message,
		ErrorDetails: r.ErrorDetails,
	}
	switch {
	case r.SurveyID != "":
		res.SurveyID = r.SurveyID
	case r.ID != "":
		res.SurveyID = r.ID
	case r.Data != nil:
		res.SurveyID = r.Data.ID
	}
	return res
}

// SurveyService reads and writes surveys at /encuestas.
type SurveyService struct {
	client *Client
}

// NewSurveyService creates a survey service backed by c.
func NewSurveyService(c *Client) *SurveyService {
	return &SurveyService{client: c}
}

// GetByID fetches a stored survey for editing.
func (s *SurveyService) GetByID(ctx context.Context, id string) (*models.SurveyRecord, error) {
	var raw json.RawMessage
	if err := s.client.do(ctx, http.MethodGet, "encuestas/"+url.PathEscape(id), nil, &raw); err != nil {
		return nil, err
	}

	var rec models.SurveyRecord
	if err := json.Unmarshal(unwrapData(raw), &rec); err != nil {
		return nil, fmt.Errorf("decoding survey %s: %w", id, err)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return &rec, nil
}

// Create posts a new survey.
func (s *SurveyService) Create(ctx context.Context, payload *models.SurveyPayload) (models.Result, error) {
	return s.write(ctx, http.MethodPost, "encuestas", payload)
}

// Update replaces the survey identified by id.
func (s *SurveyService) Update(ctx context.Context, id string, payload *models.SurveyPayload) (models.Result, error) {
	res, err := s.write(ctx, http.MethodPut, "encuestas/"+url.PathEscape(id), payload)
	if err == nil && res.Success && res.SurveyID == "" {
		res.SurveyID = id
	}
	return res, err
}

// write maps backend rejections (4xx) to a failed Result. Transport
// failures and server errors are returned as errors.
func (s *SurveyService) write(ctx context.Context, method, path string, payload *models.SurveyPayload) (models.Result, error) {
	var resp writeResponse
	err := s.client.do(ctx, method, path, payload, &resp)

	var serr *StatusError
	switch {
	case err == nil:
		return resp.result(), nil
	case errors.As(err, &serr) && serr.StatusCode < http.StatusInternalServerError:
		res := models.Result{Message: serr.Body.message()}
		if res.Message == "" {
			res.Message = http.StatusText(serr.StatusCode)
		}
		if serr.Body.Code != "" || serr.Body.Suggestion != "" {
			res.ErrorDetails = &models.ErrorDetails{
				Code:       serr.Body.Code,
				Suggestion: serr.Body.Suggestion,
			}
		}
		return res, nil
	default:
		return models.Result{}, err
	}
}
