package lmstfyx

import (
	"context"

	"github.com/bitleak/lmstfy/client"
)

// Proc handles one job and tells the processor what to do with the message.
type Proc func(ctx context.Context, job *client.Job) *JobResp

// JobRespStatus message disposition after handling
type JobRespStatus int

const (
	// JobRespStatusSuccess handled, ack the message
	JobRespStatusSuccess JobRespStatus = iota
	// JobRespStatusDrop unusable or failed for good; ack it as well, nothing is redelivered
	JobRespStatusDrop
)

func (s JobRespStatus) String() string {
	switch s {
	case JobRespStatusSuccess:
		return "success"
	case JobRespStatusDrop:
		return "drop"
	default:
		return "unknown"
	}
}

// JobResp result of one Proc call
type JobResp struct {
	Action JobRespStatus
	Data   []byte // optional payload, logged by the processor
}

// Success builds a JobResp that acks the message.
func Success(data []byte) *JobResp {
	return &JobResp{Action: JobRespStatusSuccess, Data: data}
}

// Drop builds a JobResp for a message that is discarded.
func Drop(data []byte) *JobResp {
	return &JobResp{Action: JobRespStatusDrop, Data: data}
}
