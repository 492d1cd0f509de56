// Package executiontest provides an in-memory execution.Service for tests.
package executiontest

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/dagucloud/athenahistory/internal/execution"
)

// BaseTime is the submission time of the newest generated execution. Each
// older execution is submitted one second earlier.
var BaseTime = time.Date(2018, 12, 11, 10, 9, 8, 0, time.UTC)

// Service serves a fixed, newest-first list of execution IDs.
type Service struct {
	mu sync.Mutex

	ids      []string
	pageSize int
	region   string

	listThrottles int
	getThrottles  int
	listErr       error
	getErr        error

	listCalls []string
	getCalls  [][]string
}

// NewService serves ids (newest first) in pages of pageSize.
func NewService(ids []string, pageSize int) *Service {
	return &Service{ids: slices.Clone(ids), pageSize: pageSize, region: "us-stubbed-1"}
}

// IDs generates n IDs formatted as q00, q01, ... (hex, at least two digits).
func IDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("q%02x", i)
	}
	return ids
}

// WithRegion overrides the reported region.
func (s *Service) WithRegion(region string) *Service {
	s.region = region
	return s
}

// ThrottleList makes the next n ListPage calls fail with ErrRateLimited.
func (s *Service) ThrottleList(n int) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listThrottles = n
	return s
}

// ThrottleGet makes the next n GetExecutions calls fail with ErrRateLimited.
func (s *Service) ThrottleGet(n int) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getThrottles = n
	return s
}

// FailList makes every ListPage call fail with err.
func (s *Service) FailList(err error) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listErr = err
	return s
}

// FailGet makes every GetExecutions call fail with err.
func (s *Service) FailGet(err error) *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
	return s
}

// Region implements execution.Service.
func (s *Service) Region() string {
	return s.region
}

// ListPage implements execution.Service. Tokens are decimal offsets.
func (s *Service) ListPage(_ context.Context, token string) (execution.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls = append(s.listCalls, token)
	if s.listThrottles > 0 {
		s.listThrottles--
		return execution.Page{}, fmt.Errorf("%w: slow down", execution.ErrRateLimited)
	}
	if s.listErr != nil {
		return execution.Page{}, s.listErr
	}

	offset := 0
	if token != "" {
		var err error
		if offset, err = strconv.Atoi(token); err != nil {
			return execution.Page{}, fmt.Errorf("bad token %q", token)
		}
	}

	end := min(offset+s.pageSize, len(s.ids))
	page := execution.Page{IDs: slices.Clone(s.ids[offset:end])}
	if end < len(s.ids) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

// GetExecutions implements execution.Service.
func (s *Service) GetExecutions(_ context.Context, ids []string) ([]execution.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.getCalls = append(s.getCalls, slices.Clone(ids))
	if s.getThrottles > 0 {
		s.getThrottles--
		return nil, fmt.Errorf("%w: slow down", execution.ErrRateLimited)
	}
	if s.getErr != nil {
		return nil, s.getErr
	}

	records := make([]execution.Record, 0, len(ids))
	for _, id := range ids {
		idx := slices.Index(s.ids, id)
		if idx < 0 {
			return nil, fmt.Errorf("unknown execution %q", id)
		}
		records = append(records, Record(id, idx))
	}
	return records, nil
}

// ListCalls returns the page tokens requested so far, including throttled attempts.
func (s *Service) ListCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.listCalls)
}

// GetCalls returns the ID groups looked up so far, including throttled attempts.
func (s *Service) GetCalls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.getCalls)
}

// GetCallSizes returns the size of each lookup so far.
func (s *Service) GetCallSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sizes := make([]int, len(s.getCalls))
	for i, c := range s.getCalls {
		sizes[i] = len(c)
	}
	return sizes
}

// Record builds the record served for the execution at position idx.
// Executions at odd positions have not completed.
func Record(id string, idx int) execution.Record {
	submitted := BaseTime.Add(-time.Duration(idx) * time.Second)
	status := map[string]any{
		"State":              "SUCCEEDED",
		"SubmissionDateTime": submitted.Format(time.RFC3339Nano),
	}
	rec := execution.Record{
		ID:          id,
		SubmittedAt: submitted,
		Document: map[string]any{
			"QueryExecutionId": id,
			"Query":            "SELECT 1",
			"WorkGroup":        "primary",
			"Status":           status,
		},
	}
	if idx%2 == 0 {
		completed := submitted.Add(1500 * time.Millisecond)
		rec.CompletedAt = &completed
		status["CompletionDateTime"] = completed.Format(time.RFC3339Nano)
	} else {
		status["State"] = "RUNNING"
	}
	return rec
}
