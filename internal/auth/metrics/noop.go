package metrics

import "time"

var _ Recorder = (*Noop)(nil)

// Noop discards every observation.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) RecordTokenIssued(string, time.Duration) {}
func (*Noop) RecordTokenRejected(string)              {}
func (*Noop) RecordIntrospection(bool, time.Duration) {}
func (*Noop) RecordClientRegistered()                 {}
func (*Noop) RecordClientDeactivated()                {}
func (*Noop) RecordKeyRotation(string, bool)          {}
func (*Noop) RecordKeysPurged(int)                    {}
func (*Noop) SetSigningKeys(int, int)                 {}
func (*Noop) SetClients(int)                          {}
