package framework

import "time"

// SubscriberConfig Subscriber settings
type SubscriberConfig struct {
	QueueName    string
	Concurrency  int           // receive goroutines
	Timeout      time.Duration // receive wait per Consume call
	TTR          time.Duration // time-to-run, lmstfy only
	Rate         time.Duration // pause between two deliveries
	ErrorBackoff time.Duration
}

// ProcessorConfig Processor settings
type ProcessorConfig struct {
	Concurrency int
	BufferSize  int           // inputChan capacity
	Timeout     time.Duration // per message deadline, 0 disables it
}
