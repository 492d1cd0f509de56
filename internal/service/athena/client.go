// Package athena adapts the Amazon Athena API to execution.Service.
package athena

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/aws/smithy-go"

	"github.com/dagucloud/athenahistory/internal/common/logger"
	"github.com/dagucloud/athenahistory/internal/common/logger/tag"
	"github.com/dagucloud/athenahistory/internal/execution"
)

// API is the subset of the Athena client used here.
type API interface {
	ListQueryExecutions(ctx context.Context, params *awsathena.ListQueryExecutionsInput, optFns ...func(*awsathena.Options)) (*awsathena.ListQueryExecutionsOutput, error)
	BatchGetQueryExecution(ctx context.Context, params *awsathena.BatchGetQueryExecutionInput, optFns ...func(*awsathena.Options)) (*awsathena.BatchGetQueryExecutionOutput, error)
}

// ErrMissingSubmissionTime is returned for executions without a submission time.
var ErrMissingSubmissionTime = errors.New("query execution has no submission time")

// Error codes Athena uses to reject requests for exceeding the request rate.
var throttlingCodes = map[string]struct{}{
	"TooManyRequestsException": {},
	"ThrottlingException":      {},
	"Throttling":               {},
	"RequestLimitExceeded":     {},
}

var _ execution.Service = (*Client)(nil)

// Client implements execution.Service on top of Athena.
type Client struct {
	api       API
	region    string
	workGroup string
	pageSize  int32
}

// New wraps an Athena API. An empty workGroup lists the caller's primary
// workgroup. pageSize is clamped to the API limit of 50.
func New(api API, region, workGroup string, pageSize int32) *Client {
	if pageSize <= 0 || pageSize > execution.MaxBatchSize {
		pageSize = execution.MaxBatchSize
	}
	return &Client{api: api, region: region, workGroup: workGroup, pageSize: pageSize}
}

// Region implements execution.Service.
func (c *Client) Region() string {
	return c.region
}

// ListPage implements execution.Service.
func (c *Client) ListPage(ctx context.Context, token string) (execution.Page, error) {
	input := &awsathena.ListQueryExecutionsInput{
		MaxResults: aws.Int32(c.pageSize),
	}
	if token != "" {
		input.NextToken = aws.String(token)
	}
	if c.workGroup != "" {
		input.WorkGroup = aws.String(c.workGroup)
	}

	out, err := c.api.ListQueryExecutions(ctx, input)
	if err != nil {
		return execution.Page{}, classify(err)
	}

	return execution.Page{
		IDs:       out.QueryExecutionIds,
		NextToken: aws.ToString(out.NextToken),
	}, nil
}

// GetExecutions implements execution.Service.
func (c *Client) GetExecutions(ctx context.Context, ids []string) ([]execution.Record, error) {
	out, err := c.api.BatchGetQueryExecution(ctx, &awsathena.BatchGetQueryExecutionInput{
		QueryExecutionIds: ids,
	})
	if err != nil {
		return nil, classify(err)
	}

	for _, u := range out.UnprocessedQueryExecutionIds {
		logger.Warn(ctx, "Query execution was not returned by Athena",
			tag.ExecutionID(aws.ToString(u.QueryExecutionId)),
			"code", aws.ToString(u.ErrorCode),
			"message", aws.ToString(u.ErrorMessage),
		)
	}

	records := make([]execution.Record, 0, len(out.QueryExecutions))
	for _, qe := range out.QueryExecutions {
		rec, err := toRecord(qe)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// classify marks throttling responses with execution.ErrRateLimited so the
// caller retries them.
func classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if _, ok := throttlingCodes[apiErr.ErrorCode()]; ok {
			return fmt.Errorf("%w: %v", execution.ErrRateLimited, err)
		}
	}
	return err
}

func toRecord(qe types.QueryExecution) (execution.Record, error) {
	id := aws.ToString(qe.QueryExecutionId)
	if qe.Status == nil || qe.Status.SubmissionDateTime == nil {
		return execution.Record{}, fmt.Errorf("%w: %s", ErrMissingSubmissionTime, id)
	}

	doc, err := toDocument(qe)
	if err != nil {
		return execution.Record{}, fmt.Errorf("failed to encode query execution %s: %w", id, err)
	}

	return execution.Record{
		ID:          id,
		SubmittedAt: *qe.Status.SubmissionDateTime,
		CompletedAt: qe.Status.CompletionDateTime,
		Document:    doc,
	}, nil
}

// toDocument converts the SDK struct into a generic JSON object so every
// field the API returned is written out.
func toDocument(qe types.QueryExecution) (map[string]any, error) {
	data, err := json.Marshal(qe)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
