package framework

import (
	"context"
	"encoding/json"
	"fmt"
)

// BaseHandler carries what every job handler needs: the parsed descriptor,
// the raw bytes and the resulter. It holds no business flow.
type BaseHandler struct {
	job      *JobDescriptor
	rawData  []byte
	output   interface{}
	resulter Resulter
}

// wireDescriptor accepts the legacy opportunityIds spelling next to sourceIds
type wireDescriptor struct {
	JobDescriptor
	OpportunityIDs []string `json:"opportunityIds"`
}

// Response summary written back by a handler
type Response struct {
	Error     interface{}    `json:"error"`
	Result    interface{}    `json:"result"`
	Processed bool           `json:"processed"`
	Job       *JobDescriptor `json:"job,omitempty"`
}

// ParseJob decodes a job descriptor and keeps it on the handler.
func ParseJob(rawData []byte) (*JobDescriptor, error) {
	var wire wireDescriptor
	if err := json.Unmarshal(rawData, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal job failed: %w", err)
	}

	job := wire.JobDescriptor
	if len(job.SourceIDs) == 0 {
		job.SourceIDs = wire.OpportunityIDs
	}
	if job.JobID == "" {
		return nil, fmt.Errorf("invalid job structure: missing jobId")
	}
	if job.JobType == "" {
		return nil, fmt.Errorf("invalid job structure: missing jobType")
	}

	return &job, nil
}

// NewBaseHandler binds a parsed job to a fresh BaseHandler.
func NewBaseHandler(job *JobDescriptor, rawData []byte) *BaseHandler {
	return &BaseHandler{job: job, rawData: rawData}
}

// WrapResponse wraps output in the standard response
func (b *BaseHandler) WrapResponse(ctx context.Context, output interface{}) ([]byte, error) {
	resp := &Response{
		Result:    output,
		Processed: true,
		Job:       b.job,
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, b.WrapError(err, "marshal response failed")
	}
	return data, nil
}

// WrapErrorResponse wraps err in the standard response
func (b *BaseHandler) WrapErrorResponse(ctx context.Context, err error) ([]byte, error) {
	resp := &Response{
		Error:     err.Error(),
		Processed: false,
		Job:       b.job,
	}

	data, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		return nil, b.WrapError(marshalErr, "marshal error response failed")
	}
	return data, nil
}

func (b *BaseHandler) WrapError(err error, msg string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

func (b *BaseHandler) GetJob() *JobDescriptor {
	return b.job
}

func (b *BaseHandler) GetRawData() []byte {
	return b.rawData
}

func (b *BaseHandler) SetOutput(output interface{}) {
	b.output = output
}

func (b *BaseHandler) GetOutput() interface{} {
	return b.output
}

func (b *BaseHandler) SetResulter(resulter Resulter) {
	b.resulter = resulter
}

func (b *BaseHandler) GetResulter() Resulter {
	return b.resulter
}
