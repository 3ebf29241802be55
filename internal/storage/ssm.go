package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMAPI defines the SSM operations used by the run marker.
type SSMAPI interface {
	// GetParameter retrieves a parameter from SSM.
	GetParameter(
		ctx context.Context,
		params *ssm.GetParameterInput,
		optFns ...func(*ssm.Options),
	) (*ssm.GetParameterOutput, error)

	// PutParameter stores a parameter in SSM.
	PutParameter(
		ctx context.Context,
		params *ssm.PutParameterInput,
		optFns ...func(*ssm.Options),
	) (*ssm.PutParameterOutput, error)
}

// RunStatus is what a successful run leaves behind for monitoring.
type RunStatus struct {
	// LastCampaignDate is the most recent date in the campaign sheet after the run, empty when there is none.
	LastCampaignDate string `json:"last_campaign_date,omitempty"`

	// RunAt is when the run started.
	RunAt time.Time `json:"run_at"`
}

// RunMarker records the status of the last successful sync in an SSM parameter as JSON.
// The value is for monitoring; sync decisions are always derived from the spreadsheet.
type RunMarker struct {
	// client is the SSM API client.
	client SSMAPI

	// parameterName is the SSM parameter holding the run status.
	parameterName string
}

// LastRun returns the recorded status, or a zero RunStatus if no run was recorded.
// A bare RFC 3339 timestamp is read as the run time alone.
func (m *RunMarker) LastRun(ctx context.Context) (RunStatus, error) {
	output, err := m.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(m.parameterName),
	})
	if err != nil {
		var notFoundErr *types.ParameterNotFound
		if errors.As(err, &notFoundErr) {
			return RunStatus{}, nil
		}
		return RunStatus{}, fmt.Errorf("getting parameter from SSM: %w", err)
	}

	if output.Parameter == nil || output.Parameter.Value == nil {
		return RunStatus{}, nil
	}
	value := *output.Parameter.Value

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return RunStatus{RunAt: t}, nil
	}

	var status RunStatus
	if err := json.Unmarshal([]byte(value), &status); err != nil {
		return RunStatus{}, fmt.Errorf("parsing run status from parameter: %w", err)
	}

	return status, nil
}

// RecordRun stores status as the last successful run, with the run time in UTC.
func (m *RunMarker) RecordRun(ctx context.Context, status RunStatus) error {
	status.RunAt = status.RunAt.UTC()

	value, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encoding run status: %w", err)
	}

	_, err = m.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(m.parameterName),
		Overwrite: aws.Bool(true),
		Type:      types.ParameterTypeString,
		Value:     aws.String(string(value)),
	})
	if err != nil {
		return fmt.Errorf("putting parameter to SSM: %w", err)
	}

	return nil
}

// NewRunMarker creates an SSM backed run marker.
func NewRunMarker(client SSMAPI, parameterName string) (*RunMarker, error) {
	if client == nil {
		return nil, errors.New("ssm client is required")
	}
	if parameterName == "" {
		return nil, errors.New("parameter name is required")
	}

	return &RunMarker{
		client:        client,
		parameterName: parameterName,
	}, nil
}
