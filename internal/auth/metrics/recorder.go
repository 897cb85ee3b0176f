// Package metrics records Prometheus metrics for the authorization server.
// Components depend on Recorder; Noop is used when metrics are disabled.
package metrics

import "time"

// Token rejection reasons.
const (
	ReasonInvalidClient  = "invalid_client"
	ReasonInvalidScope   = "invalid_scope"
	ReasonNoActiveKey    = "no_active_key"
	ReasonInternal       = "server_error"
	ReasonInvalidRequest = "invalid_request"
)

// Recorder is implemented by *Metrics and *Noop.
type Recorder interface {
	RecordTokenIssued(grantType string, duration time.Duration)
	RecordTokenRejected(reason string)
	RecordIntrospection(active bool, duration time.Duration)
	RecordClientRegistered()
	RecordClientDeactivated()
	RecordKeyRotation(trigger string, success bool)
	RecordKeysPurged(n int)
	SetSigningKeys(active, retired int)
	SetClients(n int)
}
