package framework

// Message one delivery handed from the Subscriber to the Processor
type Message struct {
	ID    string                 // transport message id
	Queue string                 // channel / queue name
	Data  []byte                 // raw job descriptor
	Extra map[string]interface{} // transport specific extras
}

// JobDescriptor the JSON document published on the jobs channel
type JobDescriptor struct {
	JobID       string   `json:"jobId"`
	JobType     string   `json:"jobType"`
	SourceIDs   []string `json:"sourceIds"`
	CallbackURL string   `json:"callbackUrl,omitempty"`
}
