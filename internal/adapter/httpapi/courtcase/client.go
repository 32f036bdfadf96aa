// Package courtcase calls the saved-case and monitoring toggle endpoints.
package courtcase

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/signsofter/caseobserver-dashboard/internal/adapter/httpapi"
	"github.com/signsofter/caseobserver-dashboard/internal/domain"
)

const pathCases = "/api/cases"

// Client is the court case endpoint client.
type Client struct {
	api *httpapi.Client
}

func New(api *httpapi.Client) *Client {
	return &Client{api: api}
}

// List returns the user's cases narrowed by filter.
func (c *Client) List(ctx context.Context, filter domain.CaseFilter) ([]domain.CourtCase, error) {
	if filter.SortBy != "" && !filter.SortBy.IsValid() {
		return nil, fmt.Errorf("courtcase.List: %w", domain.NewValidationError("sortBy", "must be one of lastUpdated, caseNumber, status"))
	}

	var cases []domain.CourtCase
	if err := c.api.Get(ctx, pathCases, &cases, httpapi.WithQuery(filterQuery(filter))); err != nil {
		return nil, fmt.Errorf("courtcase.List: %w", err)
	}
	if cases == nil {
		cases = []domain.CourtCase{}
	}
	return cases, nil
}

func filterQuery(f domain.CaseFilter) url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.MonitoringEnabled != nil {
		q.Set("monitoringEnabled", strconv.FormatBool(*f.MonitoringEnabled))
	}
	if f.CourtName != "" {
		q.Set("courtName", f.CourtName)
	}
	if f.SortBy != "" {
		q.Set("sortBy", string(f.SortBy))
	}
	return q
}

func (c *Client) Get(ctx context.Context, id int64) (*domain.CourtCase, error) {
	var cc domain.CourtCase
	if err := c.api.Get(ctx, casePath(id), &cc); err != nil {
		return nil, fmt.Errorf("courtcase.Get: %w", err)
	}
	return &cc, nil
}

// Create saves a case for tracking.
func (c *Client) Create(ctx context.Context, nc domain.NewCase) (*domain.CourtCase, error) {
	if err := domain.ValidateStruct(nc); err != nil {
		return nil, fmt.Errorf("courtcase.Create: %w", err)
	}

	var cc domain.CourtCase
	if err := c.api.Post(ctx, pathCases, nc, &cc); err != nil {
		return nil, fmt.Errorf("courtcase.Create: %w", err)
	}
	return &cc, nil
}

// FetchFromPortal looks a case up on the court portal without saving it.
func (c *Client) FetchFromPortal(ctx context.Context, caseNumber, institution string) (*domain.CaseDetails, error) {
	if caseNumber == "" || institution == "" {
		var errs []domain.FieldError
		if caseNumber == "" {
			errs = append(errs, domain.FieldError{Field: "caseNumber", Message: "required"})
		}
		if institution == "" {
			errs = append(errs, domain.FieldError{Field: "institution", Message: "required"})
		}
		return nil, fmt.Errorf("courtcase.FetchFromPortal: %w", domain.NewValidationErrors(errs))
	}

	q := url.Values{"caseNumber": {caseNumber}, "institution": {institution}}
	var details domain.CaseDetails
	if err := c.api.Get(ctx, pathCases+"/fetch", &details, httpapi.WithQuery(q)); err != nil {
		return nil, fmt.Errorf("courtcase.FetchFromPortal: %w", err)
	}
	return &details, nil
}

// Refetch refreshes a saved case from the portal and returns the updated case.
func (c *Client) Refetch(ctx context.Context, id int64) (*domain.CourtCase, error) {
	var cc domain.CourtCase
	if err := c.api.Post(ctx, casePath(id)+"/refetch", nil, &cc); err != nil {
		return nil, fmt.Errorf("courtcase.Refetch: %w", err)
	}
	return &cc, nil
}

// StartMonitoring enables periodic checks. A non-positive interval uses
// domain.DefaultMonitoringIntervalMinutes.
func (c *Client) StartMonitoring(ctx context.Context, id int64, intervalMinutes int) error {
	if intervalMinutes <= 0 {
		intervalMinutes = domain.DefaultMonitoringIntervalMinutes
	}

	q := url.Values{"intervalMinutes": {strconv.Itoa(intervalMinutes)}}
	var env httpapi.Envelope[any]
	if err := c.api.Post(ctx, monitoringPath(id)+"/start", nil, &env, httpapi.WithQuery(q)); err != nil {
		return fmt.Errorf("courtcase.StartMonitoring: %w", err)
	}
	if err := env.Check("Failed to start monitoring"); err != nil {
		return fmt.Errorf("courtcase.StartMonitoring: %w", err)
	}
	return nil
}

func (c *Client) StopMonitoring(ctx context.Context, id int64) error {
	var env httpapi.Envelope[any]
	if err := c.api.Post(ctx, monitoringPath(id)+"/stop", nil, &env); err != nil {
		return fmt.Errorf("courtcase.StopMonitoring: %w", err)
	}
	if err := env.Check("Failed to stop monitoring"); err != nil {
		return fmt.Errorf("courtcase.StopMonitoring: %w", err)
	}
	return nil
}

func casePath(id int64) string {
	return pathCases + "/" + strconv.FormatInt(id, 10)
}

func monitoringPath(id int64) string {
	return "/api/monitoring/cases/" + strconv.FormatInt(id, 10)
}
